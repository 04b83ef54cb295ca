package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentInitiated  = "initiated"
	PaymentApproved   = "approved"
	PaymentRequires3D = "requires_3ds"
	PaymentDeclined   = "declined"
	PaymentError      = "error"
)

// PaymentTransaction is one row per provider interaction.
type PaymentTransaction struct {
	DTO
	StoreID               uint            `gorm:"not null;index" json:"storeId"`
	OrderID               uint            `gorm:"not null;index" json:"orderId"`
	Provider              string          `gorm:"size:32;not null" json:"provider"`
	Reference             string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	ProviderTransactionID *string         `gorm:"index;size:128" json:"providerTransactionId,omitempty"`
	Amount                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency              string          `gorm:"size:3;not null" json:"currency"`
	Status                string          `gorm:"size:16;not null;index" json:"status"`
	ErrorCode             string          `gorm:"size:32" json:"errorCode,omitempty"`
	CardLast4             string          `gorm:"size:4" json:"cardLast4,omitempty"`
	CardBrand             string          `gorm:"size:32" json:"cardBrand,omitempty"`
	RawResponse           string          `gorm:"type:text" json:"-"`
	SettledAt             *time.Time      `json:"settledAt,omitempty"`
}

// IsTerminal reports whether the attempt can no longer change state.
func (p PaymentTransaction) IsTerminal() bool {
	return p.Status == PaymentApproved || p.Status == PaymentDeclined
}

type ChargePaymentInput struct {
	StoreSlug  string          `json:"storeSlug" validate:"required"`
	Token      string          `json:"token" validate:"required"`
	OrderID    uint            `json:"orderId" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
	CardLast4  string          `json:"cardLast4" validate:"omitempty,len=4,numeric"`
	CardBrand  string          `json:"cardBrand"`
	CardHolder string          `json:"cardHolder"`
	ReturnURL  string          `json:"returnUrl" validate:"omitempty,url"`
	Locale     string          `json:"locale"`
	ClientIP   string          `json:"-"`
}

type TokenizeInput struct {
	StoreSlug string `json:"storeSlug" validate:"required"`
	OrderID   uint   `json:"orderId" validate:"required,gt=0"`
	Number    string `json:"number" validate:"required,min=12,max=19,numeric"`
	ExpMonth  int    `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear   int    `json:"expYear" validate:"required,min=2000"`
	CVV       string `json:"cvv" validate:"required,min=3,max=4,numeric"`
	Holder    string `json:"holder"`
	HolderID  string `json:"holderId"`
}
