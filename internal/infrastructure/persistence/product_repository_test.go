package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dhruvretails/backend/internal/domain/shared"
	"github.com/dhruvretails/backend/internal/domain/store"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func testProduct(tenantID uuid.UUID, externalID string) *store.Product {
	price := decimal.NewFromFloat(799.00)
	return &store.Product{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ExternalID:   externalID,
		Title:        "Cotton Kurta",
		Description:  "Hand-block printed",
		Price:        &price,
		Currency:     "INR",
		ImageURL:     "https://cdn.example.com/kurta.jpg",
	}
}

func TestGormProductRepository_Upsert(t *testing.T) {
	t.Run("issues insert with conflict handling on tenant and external id", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		product := testProduct(tenantID, "9000001")

		mock.ExpectExec(`INSERT INTO "products" .* ON CONFLICT \("tenant_id","external_id"\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Upsert(context.Background(), product)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		product := testProduct(uuid.New(), "9000001")

		mock.ExpectExec(`INSERT INTO "products"`).
			WillReturnError(sql.ErrConnDone)

		err := repo.Upsert(context.Background(), product)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByExternalID(t *testing.T) {
	t.Run("finds product within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "external_id", "title", "currency"}).
			AddRow(productID, tenantID, "9000001", "Cotton Kurta", "INR")

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "9000001", 1).
			WillReturnRows(rows)

		product, err := repo.FindByExternalID(context.Background(), tenantID, "9000001")

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "9000001", product.ExternalID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when absent", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByExternalID(context.Background(), tenantID, "missing")

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_CountForTenant(t *testing.T) {
	t.Run("counts products for tenant only", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(42)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		count, err := repo.CountForTenant(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
