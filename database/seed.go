package database

import (
	"log"

	"storefront/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedData creates a demo store with a small catalog, a sandbox provider and
// the SAVE10 coupon. Running it twice changes nothing.
func SeedData(db *gorm.DB) (*model.Store, error) {
	store := model.Store{
		Name:                 "Demo Store",
		Slug:                 "demo",
		Currency:             "USD",
		Locale:               "en",
		OwnerEmail:           "owner@demo.local",
		FeedKey:              "demo-feed-key",
		OrderNumberStart:     1000,
		LowStockThreshold:    3,
		LoyaltyPointsPerUnit: decimal.NewFromInt(1),
		Active:               true,
	}
	if err := db.Where(model.Store{Slug: store.Slug}).FirstOrCreate(&store).Error; err != nil {
		return nil, err
	}

	products := []model.Product{
		{Name: "Ceramic Mug", Price: decimal.RequireFromString("12.50"), TrackInventory: true, Inventory: 40, Active: true},
		{Name: "Desk Lamp", Price: decimal.RequireFromString("49.90"), TrackInventory: true, Inventory: 10, Active: true},
		{Name: "E-book Bundle", Price: decimal.RequireFromString("19.00"), Active: true},
	}
	for _, product := range products {
		product.StoreID = store.ID
		if err := db.Where(model.Product{StoreID: store.ID, Name: product.Name}).FirstOrCreate(&product).Error; err != nil {
			log.Println("failed to seed product:", product.Name, "error:", err)
		}
	}

	rates := []model.ShippingRate{
		{Code: "standard", Title: "Standard", Price: decimal.NewFromInt(5), FreeOver: decimal.NewNullDecimal(decimal.NewFromInt(100)), Active: true},
		{Code: "express", Title: "Express", Price: decimal.NewFromInt(15), Active: true},
	}
	for _, rate := range rates {
		rate.StoreID = store.ID
		if err := db.Where(model.ShippingRate{StoreID: store.ID, Code: rate.Code}).FirstOrCreate(&rate).Error; err != nil {
			log.Println("failed to seed shipping rate:", rate.Code, "error:", err)
		}
	}

	coupon := model.Coupon{
		StoreID:       store.ID,
		Code:          "SAVE10",
		Type:          model.DiscountPercentage,
		Value:         decimal.NewFromInt(10),
		MinimumAmount: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Active:        true,
	}
	if err := db.Where(model.Coupon{StoreID: store.ID, Code: coupon.Code}).FirstOrCreate(&coupon).Error; err != nil {
		log.Println("failed to seed coupon:", coupon.Code, "error:", err)
	}

	provider := model.PaymentProviderConfig{StoreID: store.ID, Provider: "sandbox", Active: true}
	if err := db.Where(model.PaymentProviderConfig{StoreID: store.ID}).FirstOrCreate(&provider).Error; err != nil {
		return nil, err
	}

	log.Printf("[DB] demo store %q ready (id=%d)", store.Slug, store.ID)
	return &store, nil
}
