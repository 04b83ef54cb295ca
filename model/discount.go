package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage   = "percentage"
	DiscountFixedAmount  = "fixed_amount"
	DiscountFreeShipping = "free_shipping"
	DiscountBuyXGetY     = "buy_x_get_y"

	ScopeAll      = "all"
	ScopeCategory = "category"
	ScopeProduct  = "product"
)

type Coupon struct {
	DTO
	StoreID uint            `gorm:"not null;uniqueIndex:idx_coupon_store_code" json:"storeId"`
	Code    string          `gorm:"size:64;not null;uniqueIndex:idx_coupon_store_code" json:"code"`
	Type    string          `gorm:"size:32;not null" json:"type"`
	Value   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`

	// buy_x_get_y only
	BuyQuantity int `json:"buyQuantity"`
	GetQuantity int `json:"getQuantity"`

	MinimumAmount decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"minimumAmount"`
	// UsageCount never exceeds UsageLimit; see ledger.ClaimCoupon.
	UsageLimit *int       `json:"usageLimit"`
	UsageCount int        `gorm:"not null;default:0" json:"usageCount"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
	Active     bool       `json:"active"`
}

type AutomaticDiscount struct {
	DTO
	StoreID         uint                `gorm:"not null;index" json:"storeId"`
	Title           string              `json:"title"`
	Type            string              `gorm:"size:32;not null" json:"type"`
	Value           decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"value"`
	Priority        int                 `gorm:"not null;default:0" json:"priority"`
	MinimumAmount   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"minimumAmount"`
	MinimumQuantity *int                `json:"minimumQuantity"`
	AppliesTo       string              `gorm:"size:16;not null" json:"appliesTo"`
	StartsAt        *time.Time          `json:"startsAt"`
	EndsAt          *time.Time          `json:"endsAt"`
	Active          bool                `json:"active"`
}

const (
	GiftCardActive  = "active"
	GiftCardUsed    = "used"
	GiftCardExpired = "expired"
)

type GiftCard struct {
	DTO
	StoreID        uint            `gorm:"not null;uniqueIndex:idx_giftcard_store_code" json:"storeId"`
	Code           string          `gorm:"size:64;not null;uniqueIndex:idx_giftcard_store_code" json:"code"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"initialBalance"`
	Balance        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	Status         string          `gorm:"size:16;not null" json:"status"`
	ExpiresAt      *time.Time      `json:"expiresAt"`
	CustomerID     *uint           `json:"customerId,omitempty"`
}

// GiftCardTransaction is append-only.
type GiftCardTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	GiftCardID   uint            `gorm:"not null;index" json:"giftCardId"`
	OrderID      *uint           `gorm:"index" json:"orderId,omitempty"`
	Type         string          `gorm:"size:16;not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balanceAfter"`
}
