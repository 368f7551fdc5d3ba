package services

import (
	"context"
	"testing"

	"github.com/diewo77/go-pos/internal/apperr"
	"github.com/diewo77/go-pos/internal/events"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateProduct(t *testing.T) {
	gdb := newTestDB(t)
	rec := &events.Recorder{}
	svc := NewProductService(gdb, rec, 10)
	ctx := context.Background()

	cat := &models.Category{Name: "Drinks"}
	require.NoError(t, gdb.Create(cat).Error)

	p, err := svc.CreateProduct(ctx, ProductInput{Name: " Cola ", Barcode: "590", Price: 199, Quantity: 12, CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Cola", p.Name)
	assert.Equal(t, []string{"product.changed"}, rec.Names())

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Cola Zero", Barcode: "590", Price: 199})
	assert.ErrorIs(t, err, apperr.ErrDuplicateBarcode)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	missing := uint(404)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Lemonade", Barcode: "591", Price: 150, CategoryID: &missing})
	assert.ErrorIs(t, err, apperr.ErrCategoryNotFound)

	got, err := svc.GetByBarcode(ctx, "590")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewProductService(newTestDB(t), nil, 10)

	tests := []struct {
		name  string
		in    ProductInput
		field string
	}{
		{"missing name", ProductInput{Barcode: "1", Price: 1}, "name"},
		{"missing barcode", ProductInput{Name: "x", Price: 1}, "barcode"},
		{"zero price", ProductInput{Name: "x", Barcode: "1"}, "price"},
		{"negative price", ProductInput{Name: "x", Barcode: "1", Price: -5}, "price"},
		{"negative quantity", ProductInput{Name: "x", Barcode: "1", Price: 1, Quantity: -1}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tt.in)
			require.ErrorIs(t, err, apperr.ErrInvalidArgument)
			var v validation.Violations
			require.ErrorAs(t, err, &v)
			assert.Contains(t, v, tt.field)
		})
	}
}

func TestUpdateProductKeepsBarcode(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProductService(gdb, nil, 10)
	ctx := context.Background()
	p := seedProduct(t, gdb, "Choc", "CH-1", 300, 4)

	updated, err := svc.UpdateProduct(ctx, p.ID, "Dark Choc", nil)
	require.NoError(t, err)
	assert.Equal(t, "Dark Choc", updated.Name)
	assert.Equal(t, "CH-1", updated.Barcode)
	assert.Equal(t, int64(4), updated.Quantity)

	_, err = svc.UpdateProduct(ctx, 999, "Ghost", nil)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)

	_, err = svc.UpdateProduct(ctx, p.ID, "  ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestUpdateProductKeepsConcurrentSale(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProductService(gdb, nil, 10)
	ctx := context.Background()
	p := seedProduct(t, gdb, "Tea", "T-1", 200, 4)

	// A sale of 3 lands right after UpdateProduct has read the row.
	var sold bool
	require.NoError(t, gdb.Callback().Query().After("gorm:query").Register("test:concurrent_sale", func(tx *gorm.DB) {
		if sold || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "products" {
			return
		}
		sold = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET quantity = quantity - 3 WHERE id = ?", p.ID).Error)
	}))
	t.Cleanup(func() { _ = gdb.Callback().Query().Remove("test:concurrent_sale") })

	updated, err := svc.UpdateProduct(ctx, p.ID, "Green Tea", nil)
	require.NoError(t, err)
	require.True(t, sold)
	assert.Equal(t, "Green Tea", updated.Name)
	assert.Equal(t, int64(1), updated.Quantity)
	assert.Equal(t, int64(1), quantityOf(t, gdb, p.ID))
	assert.Equal(t, int64(200), updated.Price)
}

func TestUpdatePriceRejectsNonPositive(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProductService(gdb, nil, 10)
	ctx := context.Background()
	p := seedProduct(t, gdb, "Gum", "G-1", 50, 10)

	for _, price := range []int64{0, -1, -500} {
		_, err := svc.UpdatePrice(ctx, p.ID, price)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, "price %d", price)
	}
	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Price)

	got, err = svc.UpdatePrice(ctx, p.ID, 65)
	require.NoError(t, err)
	assert.Equal(t, int64(65), got.Price)

	_, err = svc.UpdatePrice(ctx, 999, 65)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestUpdatePriceDoesNotTouchSoldItems(t *testing.T) {
	gdb := newTestDB(t)
	products := NewProductService(gdb, nil, 10)
	invoices, _ := newInvoiceService(gdb)
	ctx := context.Background()
	p := seedProduct(t, gdb, "Wine", "WN-1", 1000, 5)

	inv, err := invoices.CreateInvoice(ctx, nil, []LineItem{{p.ID, 2}})
	require.NoError(t, err)
	_, err = products.UpdatePrice(ctx, p.ID, 1500)
	require.NoError(t, err)

	details, err := invoices.GetInvoiceWithDetails(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), details.Items[0].UnitPrice)
	assert.Equal(t, int64(2000), details.Invoice.TotalAmount)
}

func TestAdjustQuantityManual(t *testing.T) {
	gdb := newTestDB(t)
	rec := &events.Recorder{}
	svc := NewProductService(gdb, rec, 10)
	ctx := context.Background()
	p := seedProduct(t, gdb, "Lamp", "L-1", 900, 3)

	got, err := svc.AdjustQuantity(ctx, p.ID, 7, models.StockIncrease)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)

	_, err = svc.AdjustQuantity(ctx, p.ID, 11, models.StockDecrease)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got, err = svc.AdjustQuantity(ctx, p.ID, 10, models.StockDecrease)
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)

	history, err := svc.StockHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ReasonManual, history[0].Reason)
	assert.Equal(t, int64(3), history[0].Before)
	assert.Equal(t, int64(10), history[1].Before)
	assert.Zero(t, history[1].After)

	require.Len(t, rec.Events, 2)
	change := rec.Events[1].(events.StockChanged)
	assert.Equal(t, int64(10), change.Before)
	assert.Zero(t, change.After)
}

func TestDeleteProduct(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProductService(gdb, nil, 10)
	invoices, _ := newInvoiceService(gdb)
	ctx := context.Background()
	sold := seedProduct(t, gdb, "Sold", "SO-1", 100, 5)
	unsold := seedProduct(t, gdb, "Unsold", "UN-1", 100, 5)

	_, err := invoices.CreateInvoice(ctx, nil, []LineItem{{sold.ID, 1}})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, sold.ID)
	assert.ErrorIs(t, err, apperr.ErrProductInUse)
	got, err := svc.GetProduct(ctx, sold.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	require.NoError(t, svc.DeleteProduct(ctx, unsold.ID))
	got, err = svc.GetProduct(ctx, unsold.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, unsold.ID), apperr.ErrProductNotFound)
}

func TestProductQueries(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProductService(gdb, nil, 5)
	ctx := context.Background()
	seedProduct(t, gdb, "Apple", "AP-1", 40, 2)
	seedProduct(t, gdb, "Banana", "BA-1", 30, 5)
	seedProduct(t, gdb, "Cherry", "CH-9", 90, 50)

	low, err := svc.LowStock(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, low, 2, "default threshold is inclusive")

	low, err = svc.LowStock(ctx, 2)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Apple", low[0].Name)

	found, err := svc.SearchProducts(ctx, "an")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Banana", found[0].Name)

	found, err = svc.SearchProducts(ctx, "ch-9")
	require.NoError(t, err)
	require.Len(t, found, 1)

	all, err := svc.SearchProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.PaginateProducts(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
}
