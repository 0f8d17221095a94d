package shopify

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dhruvretails/backend/internal/domain/integration"
)

// Raw Admin API payload shapes. Shopify serializes IDs as numbers and money
// as strings, so conversion to domain records happens here and nowhere else.

type productsEnvelope struct {
	Products []productPayload `json:"products"`
}

type customersEnvelope struct {
	Customers []customerPayload `json:"customers"`
}

type ordersEnvelope struct {
	Orders []orderPayload `json:"orders"`
}

type productPayload struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html"`
	Image    *imagePayload    `json:"image"`
	Variants []variantPayload `json:"variants"`
}

type imagePayload struct {
	Src string `json:"src"`
}

type variantPayload struct {
	Price string `json:"price"`
}

type customerPayload struct {
	ID             int64           `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Tags           string          `json:"tags"`
	DefaultAddress *addressPayload `json:"default_address"`
}

type addressPayload struct {
	City string `json:"city"`
}

type orderPayload struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Currency          string            `json:"currency"`
	TotalPrice        string            `json:"total_price"`
	CreatedAt         *time.Time        `json:"created_at"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	Customer          *customerPayload  `json:"customer"`
	LineItems         []lineItemPayload `json:"line_items"`
}

type lineItemPayload struct {
	ID        int64  `json:"id"`
	ProductID *int64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

func parseMoney(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func (p *productPayload) toRecord() integration.ProductRecord {
	record := integration.ProductRecord{
		ExternalID:  strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		Description: p.BodyHTML,
	}
	if len(p.Variants) > 0 {
		record.Price = parseMoney(p.Variants[0].Price)
	}
	if p.Image != nil {
		record.ImageURL = p.Image.Src
	}
	record.Normalize()
	return record
}

func (c *customerPayload) toRecord() integration.CustomerRecord {
	record := integration.CustomerRecord{
		ExternalID: strconv.FormatInt(c.ID, 10),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Tags:       c.Tags,
	}
	if c.DefaultAddress != nil {
		record.City = c.DefaultAddress.City
	}
	record.Normalize()
	return record
}

func (o *orderPayload) toRecord() integration.OrderRecord {
	record := integration.OrderRecord{
		ExternalID:        strconv.FormatInt(o.ID, 10),
		OrderNumber:       o.Name,
		Currency:          o.Currency,
		TotalPrice:        parseMoney(o.TotalPrice),
		CreatedAt:         o.CreatedAt,
		FinancialStatus:   o.FinancialStatus,
		FulfillmentStatus: o.FulfillmentStatus,
	}
	if o.Customer != nil {
		record.CustomerExternalID = strconv.FormatInt(o.Customer.ID, 10)
	}
	record.LineItems = make([]integration.LineItemRecord, len(o.LineItems))
	for i, line := range o.LineItems {
		item := integration.LineItemRecord{
			ExternalLineID: strconv.FormatInt(line.ID, 10),
			Quantity:       line.Quantity,
			Price:          parseMoney(line.Price),
		}
		if line.ProductID != nil {
			item.ProductExternalID = strconv.FormatInt(*line.ProductID, 10)
		}
		record.LineItems[i] = item
	}
	record.Normalize()
	return record
}
