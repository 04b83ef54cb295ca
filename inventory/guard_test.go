package inventory

import (
	"context"
	"errors"
	"testing"

	"storefront/catalog"
	"storefront/database/dbtest"
	"storefront/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRejectsNamedItem(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	p := dbtest.Product(t, db, store.ID, "Mug", "10", true, 3)
	untracked := dbtest.Product(t, db, store.ID, "Ebook", "5", false, 0)

	lines, err := catalog.ResolveLines(context.Background(), db, store.ID, []model.CartLineInput{
		{ProductID: p.ID.String(), Quantity: 2},
		{ProductID: untracked.ID.String(), Quantity: 50},
		{ProductID: p.ID.String(), Quantity: 2},
	})
	require.NoError(t, err)

	err = Check(lines)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Mug", stockErr.Item)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	assert.NoError(t, Check(lines[:2]))
}

func TestCheckUsesVariantStock(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	p := dbtest.Product(t, db, store.ID, "Shirt", "20", false, 0)
	v := dbtest.Variant(t, db, p, "Large", "", true, 1)

	lines, err := catalog.ResolveLines(context.Background(), db, store.ID, []model.CartLineInput{
		{ProductID: p.ID.String() + v.ID.String(), Quantity: 2},
	})
	require.NoError(t, err)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, Check(lines), &stockErr)
	assert.Equal(t, "Shirt - Large", stockErr.Item)
}

func TestDecrementFloorsAtZero(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	p := dbtest.Product(t, db, store.ID, "Mug", "10", true, 3)
	shirt := dbtest.Product(t, db, store.ID, "Shirt", "20", false, 0)
	v := dbtest.Variant(t, db, shirt, "Small", "", true, 5)
	free := dbtest.Product(t, db, store.ID, "Sticker", "1", false, 7)

	lines, err := catalog.ResolveLines(context.Background(), db, store.ID, []model.CartLineInput{
		{ProductID: p.ID.String(), Quantity: 10},
		{ProductID: shirt.ID.String(), VariantID: v.ID.String(), Quantity: 2},
		{ProductID: free.ID.String(), Quantity: 3},
	})
	require.NoError(t, err)
	require.NoError(t, Decrement(context.Background(), db, lines))

	var got model.Product
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, 0, got.Inventory)

	var gotVariant model.ProductVariant
	require.NoError(t, db.First(&gotVariant, "id = ?", v.ID).Error)
	assert.Equal(t, 3, gotVariant.Inventory)

	require.NoError(t, db.First(&got, "id = ?", free.ID).Error)
	assert.Equal(t, 7, got.Inventory)
}

func TestLowStock(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	low := dbtest.Product(t, db, store.ID, "Mug", "10", true, 2)
	plenty := dbtest.Product(t, db, store.ID, "Plate", "10", true, 9)
	untracked := dbtest.Product(t, db, store.ID, "Ebook", "10", false, 0)

	items := []model.OrderItem{
		{ProductID: low.ID}, {ProductID: low.ID},
		{ProductID: plenty.ID}, {ProductID: untracked.ID},
	}
	got, err := LowStock(context.Background(), db, items, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mug", got[0].Name)
	assert.Equal(t, 2, got[0].Inventory)
}
