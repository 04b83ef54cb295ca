package dbtest

import (
	"testing"

	"storefront/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Store(t testing.TB, db *gorm.DB, slug string) *model.Store {
	t.Helper()
	s := &model.Store{
		Name:                 slug,
		Slug:                 slug,
		Currency:             "USD",
		Locale:               "en",
		OwnerEmail:           "owner@" + slug + ".test",
		OrderNumberStart:     1000,
		LowStockThreshold:    2,
		LoyaltyPointsPerUnit: D("1"),
		Active:               true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func Product(t testing.TB, db *gorm.DB, storeID uint, name, price string, track bool, inventory int) *model.Product {
	t.Helper()
	p := &model.Product{
		StoreID:        storeID,
		Name:           name,
		Price:          D(price),
		TrackInventory: track,
		Inventory:      inventory,
		Active:         true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Variant(t testing.TB, db *gorm.DB, p *model.Product, title, price string, track bool, inventory int) *model.ProductVariant {
	t.Helper()
	v := &model.ProductVariant{
		ProductID:      p.ID,
		Title:          title,
		TrackInventory: track,
		Inventory:      inventory,
		Active:         true,
	}
	if price != "" {
		v.Price = decimal.NewNullDecimal(D(price))
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

func Coupon(t testing.TB, db *gorm.DB, storeID uint, code, kind, value string, limit *int) *model.Coupon {
	t.Helper()
	c := &model.Coupon{
		StoreID:    storeID,
		Code:       code,
		Type:       kind,
		Value:      D(value),
		UsageLimit: limit,
		Active:     true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func GiftCard(t testing.TB, db *gorm.DB, storeID uint, code, balance string) *model.GiftCard {
	t.Helper()
	g := &model.GiftCard{
		StoreID:        storeID,
		Code:           code,
		InitialBalance: D(balance),
		Balance:        D(balance),
		Status:         model.GiftCardActive,
	}
	require.NoError(t, db.Create(g).Error)
	return g
}

func Customer(t testing.TB, db *gorm.DB, storeID uint, email, credit string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		StoreID:       storeID,
		Email:         email,
		FirstName:     "Test",
		CreditBalance: D(credit),
		TotalSpent:    decimal.Zero,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
