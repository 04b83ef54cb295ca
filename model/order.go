package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderOpen      = "open"
	OrderCancelled = "cancelled"
	OrderClosed    = "closed"

	FinancialPending  = "pending"
	FinancialPaid     = "paid"
	FinancialRefunded = "refunded"
	FinancialVoided   = "voided"
	FinancialFailed   = "failed"

	FulfillmentUnfulfilled = "unfulfilled"
	FulfillmentFulfilled   = "fulfilled"
)

type Order struct {
	DTO
	StoreID     uint      `gorm:"not null;uniqueIndex:idx_order_store_number" json:"storeId"`
	OrderNumber int64     `gorm:"not null;uniqueIndex:idx_order_store_number" json:"orderNumber"`
	PublicCode  string    `gorm:"uniqueIndex;size:20" json:"publicCode"`
	CustomerID  *uint     `json:"customerId,omitempty"`
	Customer    *Customer `json:"customer,omitempty"`

	Status            string `gorm:"size:16;not null" json:"status"`
	FinancialStatus   string `gorm:"size:16;not null;index" json:"financialStatus"`
	FulfillmentStatus string `gorm:"size:16;not null" json:"fulfillmentStatus"`

	Subtotal        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"discountAmount"`
	DiscountDetails []DiscountDetail `gorm:"serializer:json;type:text" json:"discountDetails"`
	GiftCardAmount  decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"giftCardAmount"`
	CreditUsed      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"creditUsed"`
	Shipping        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"shipping"`
	Tax             decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	Total           decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency        string           `gorm:"size:3;not null" json:"currency"`

	// Snapshots taken at creation; later customer edits do not touch them.
	CustomerEmail   string          `json:"customerEmail"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress string          `gorm:"type:text" json:"shippingAddress"`
	AddressSnapshot AddressSnapshot `gorm:"serializer:json;type:text" json:"address"`
	ShippingMethod  string          `json:"shippingMethod"`

	DiscountCode  *string     `gorm:"size:64" json:"discountCode,omitempty"`
	Note          string      `gorm:"type:text" json:"note"`
	PaymentMethod string      `json:"paymentMethod"`
	Locale        string      `gorm:"size:5" json:"locale"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type DiscountDetail struct {
	Kind   string          `json:"kind"` // automatic, coupon, gift_card, shipping
	Code   string          `json:"code,omitempty"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

type AddressSnapshot struct {
	Street    string `json:"street"`
	Number    string `json:"number"`
	Apartment string `json:"apartment,omitempty"`
	Floor     string `json:"floor,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	OrderID      uint            `gorm:"not null;index" json:"orderId"`
	ProductID    uuid.UUID       `gorm:"type:varchar(36);not null" json:"productId"`
	VariantID    *uuid.UUID      `gorm:"type:varchar(36)" json:"variantId,omitempty"`
	Name         string          `gorm:"not null" json:"name"`
	VariantTitle string          `json:"variantTitle,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"lineTotal"`
	// Properties is stored as received and never recomputed.
	Properties json.RawMessage `gorm:"serializer:json;type:text" json:"properties,omitempty"`
}

type CartLineInput struct {
	ProductID  string          `json:"productId" validate:"required"`
	VariantID  string          `json:"variantId"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price"` // client claim, display only
	Name       string          `json:"name"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

type ContactInput struct {
	Email            string `json:"email" validate:"required,email"`
	FirstName        string `json:"firstName" validate:"required"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone"`
	AcceptsMarketing bool   `json:"acceptsMarketing"`
}

type AddressInput struct {
	Street    string `json:"street"`
	Number    string `json:"number"`
	Apartment string `json:"apartment"`
	Floor     string `json:"floor"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type CreateOrderInput struct {
	StoreID        uint            `json:"storeId" validate:"required,gt=0"`
	Items          []CartLineInput `json:"items" validate:"required,min=1,dive"`
	Customer       ContactInput    `json:"customer" validate:"required"`
	Address        AddressInput    `json:"address"`
	ShippingMethod string          `json:"shippingMethod"`
	CouponCode     string          `json:"couponCode"`
	CreditToApply  decimal.Decimal `json:"creditToApply"`
	Note           string          `json:"note" validate:"max=2000"`
	PaymentMethod  string          `json:"paymentMethod"`
	Locale         string          `json:"locale"`

	CreateAccount bool   `json:"createAccount"`
	Password      string `json:"password" validate:"required_if=CreateAccount true,omitempty,min=6"`
	JoinClub      bool   `json:"joinClub"`

	// Client-computed figures, logged for anomaly detection only.
	ClientSubtotal  decimal.Decimal  `json:"subtotal"`
	ClientDiscount  decimal.Decimal  `json:"discount"`
	ClientShipping  decimal.Decimal  `json:"shipping"`
	ClientTotal     decimal.Decimal  `json:"total"`
	DiscountDetails []DiscountDetail `json:"discountDetails"`

	// Set from the authenticated session, never from the body.
	SessionCustomerID uint `json:"-"`
}
