package model

import "github.com/shopspring/decimal"

type Store struct {
	DTO
	Name       string `gorm:"not null" json:"name"`
	Slug       string `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Currency   string `gorm:"size:3;not null" json:"currency"`
	Locale     string `gorm:"size:5" json:"locale"`
	OwnerEmail string `json:"ownerEmail"`
	// FeedKey authorizes the live order feed.
	FeedKey string `gorm:"size:64" json:"-"`

	// OrderCounter is only ever advanced by a single UPDATE ... RETURNING.
	OrderCounter     int64 `gorm:"not null;default:0" json:"-"`
	OrderNumberStart int64 `gorm:"not null" json:"orderNumberStart"`

	LowStockThreshold    int             `json:"lowStockThreshold"`
	LoyaltyPointsPerUnit decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0" json:"loyaltyPointsPerUnit"`
	Active               bool            `json:"active"`
}

// PaymentProviderConfig selects and configures the processor a store charges through.
type PaymentProviderConfig struct {
	DTO
	StoreID    uint   `gorm:"uniqueIndex;not null" json:"storeId"`
	Provider   string `gorm:"size:32;not null" json:"provider"` // sandbox, vnpay, cardgate
	TerminalID string `json:"terminalId"`
	APIKey     string `json:"-"`
	Secret     string `json:"-"`
	BaseURL    string `json:"baseUrl"`
	Sandbox    bool   `json:"sandbox"`
	Active     bool   `json:"active"`
}

type ShippingRate struct {
	DTO
	StoreID  uint                `gorm:"not null;uniqueIndex:idx_shipping_store_code" json:"storeId"`
	Code     string              `gorm:"size:32;not null;uniqueIndex:idx_shipping_store_code" json:"code"`
	Title    string              `json:"title"`
	Price    decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	FreeOver decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"freeOver"`
	Active   bool                `json:"active"`
}
