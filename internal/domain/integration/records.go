package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied when the platform omits a currency code
const DefaultCurrency = "INR"

// The record types in this file are the explicit shape of externally-fetched
// resources. The platform omits fields freely, so optional fields are
// pointers and each record carries a Normalize method that applies the
// defined defaults before reconciliation begins. Reconcilers only ever see
// normalized records.

// ProductRecord is a product as returned by the platform's Admin API
type ProductRecord struct {
	ExternalID  string
	Title       string
	Description string
	Price       *decimal.Decimal
	Currency    string
	ImageURL    string
}

// Normalize applies field defaults in place
func (r *ProductRecord) Normalize() {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
}

// CustomerRecord is a customer as returned by the platform's Admin API
type CustomerRecord struct {
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	City       string
	Tags       string
}

// Normalize applies field defaults in place
func (r *CustomerRecord) Normalize() {}

// OrderRecord is an order as returned by the platform's Admin API.
// CustomerExternalID is empty when the order carries no embedded customer.
type OrderRecord struct {
	ExternalID         string
	OrderNumber        string
	CustomerExternalID string
	TotalPrice         *decimal.Decimal
	Currency           string
	CreatedAt          *time.Time
	FinancialStatus    string
	FulfillmentStatus  string
	LineItems          []LineItemRecord
}

// Normalize applies field defaults in place
func (r *OrderRecord) Normalize() {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
}

// LineItemRecord is an order line item as returned by the platform
type LineItemRecord struct {
	ExternalLineID    string
	ProductExternalID string
	Quantity          int
	Price             *decimal.Decimal
}
