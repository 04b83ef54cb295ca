package catalog

import (
	"context"
	"testing"

	"storefront/database/dbtest"
	"storefront/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitID(t *testing.T) {
	p := uuid.New()
	v := uuid.New()

	pid, vid, err := SplitID(p.String(), "")
	require.NoError(t, err)
	assert.Equal(t, p, pid)
	assert.Nil(t, vid)

	pid, vid, err = SplitID(p.String()+v.String(), "")
	require.NoError(t, err)
	assert.Equal(t, p, pid)
	require.NotNil(t, vid)
	assert.Equal(t, v, *vid)

	pid, vid, err = SplitID(p.String(), v.String())
	require.NoError(t, err)
	assert.Equal(t, p, pid)
	assert.Equal(t, v, *vid)

	_, _, err = SplitID("not-a-uuid", "")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestResolve(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	store := dbtest.Store(t, db, "shop")
	other := dbtest.Store(t, db, "other")

	shirt := dbtest.Product(t, db, store.ID, "Shirt", "25.00", true, 10)
	large := dbtest.Variant(t, db, shirt, "Large", "30.00", true, 3)
	small := dbtest.Variant(t, db, shirt, "Small", "", false, 0)
	foreign := dbtest.Product(t, db, other.ID, "Hat", "5.00", false, 0)

	t.Run("product", func(t *testing.T) {
		item, err := Resolve(ctx, db, store.ID, shirt.ID.String(), "")
		require.NoError(t, err)
		assert.True(t, dbtest.D("25").Equal(item.UnitPrice))
		assert.Equal(t, 10, item.Available)
		assert.Nil(t, item.VariantID())
	})

	t.Run("variant price overrides", func(t *testing.T) {
		item, err := Resolve(ctx, db, store.ID, shirt.ID.String(), large.ID.String())
		require.NoError(t, err)
		assert.True(t, dbtest.D("30").Equal(item.UnitPrice))
		assert.Equal(t, 3, item.Available)
		assert.Equal(t, "Shirt - Large", item.Label())
	})

	t.Run("variant inherits price", func(t *testing.T) {
		item, err := Resolve(ctx, db, store.ID, shirt.ID.String()+small.ID.String(), "")
		require.NoError(t, err)
		assert.True(t, dbtest.D("25").Equal(item.UnitPrice))
		assert.False(t, item.TrackInventory)
	})

	t.Run("other store", func(t *testing.T) {
		_, err := Resolve(ctx, db, store.ID, foreign.ID.String(), "")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("inactive", func(t *testing.T) {
		require.NoError(t, db.Model(&model.Product{}).Where("id = ?", shirt.ID).Update("active", false).Error)
		_, err := Resolve(ctx, db, store.ID, shirt.ID.String(), "")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestResolveLinesRejectsNonPositiveQuantity(t *testing.T) {
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	p := dbtest.Product(t, db, store.ID, "Lamp", "100", true, 10)

	_, err := ResolveLines(context.Background(), db, store.ID, []model.CartLineInput{{ProductID: p.ID.String(), Quantity: -5}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	lines, err := ResolveLines(context.Background(), db, store.ID, []model.CartLineInput{{ProductID: p.ID.String(), Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].LineTotal().Equal(dbtest.D("200")))
}
