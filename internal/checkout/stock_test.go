package checkout

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
	))
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, priceCents int64, stock int) *models.Product {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: "Parts", Slug: "parts-" + uuid.NewString()}
	require.NoError(t, conn.Create(category).Error)
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Brand:      "TestBrand",
		CategoryID: category.ID,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func currentStock(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func TestDecrementStockApplies(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, conn, "PSU 850W", 12900, 5)

	violations, err := DecrementStock(ctx, conn, []StockLine{{ProductID: product.ID, Quantity: 3}})
	require.NoError(t, err)
	require.Empty(t, violations)
	require.Equal(t, 2, currentStock(t, conn, product.ID))
}

func TestDecrementStockReportsShortfall(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, conn, "GPU", 129900, 1)

	violations, err := DecrementStock(ctx, conn, []StockLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, product.ID, violations[0].ProductID)
	require.Equal(t, 2, violations[0].Requested)
	require.Equal(t, 1, violations[0].Available)

	require.Equal(t, 1, currentStock(t, conn, product.ID), "failed line leaves stock untouched")
}

func TestDecrementStockNeverGoesNegative(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, conn, "CPU", 54900, 3)

	first, err := DecrementStock(ctx, conn, []StockLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	require.Empty(t, first)

	second, err := DecrementStock(ctx, conn, []StockLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, second, 1, "second decrement of 2 against remaining 1 must fail")

	require.Equal(t, 1, currentStock(t, conn, product.ID))
}

func TestDecrementStockMixedLines(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	ok := seedProduct(t, conn, "RAM 32GB", 15900, 10)
	short := seedProduct(t, conn, "SSD 2TB", 17900, 1)

	violations, err := DecrementStock(ctx, conn, []StockLine{
		{ProductID: ok.ID, Quantity: 2},
		{ProductID: short.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Equal(t, short.ID, violations[0].ProductID)
}
