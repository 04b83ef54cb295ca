package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	DTO
	StoreID   uint    `gorm:"not null;uniqueIndex:idx_customer_store_email" json:"storeId"`
	Email     string  `gorm:"not null;size:255;uniqueIndex:idx_customer_store_email" json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     string  `json:"phone"`
	Password  *string `json:"-"`

	AcceptsMarketing bool `json:"acceptsMarketing"`

	// CreditBalance is the live balance; CreditTransaction rows are its audit trail.
	CreditBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"creditBalance"`
	OrdersCount   int             `gorm:"not null;default:0" json:"ordersCount"`
	TotalSpent    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalSpent"`
	LoyaltyPoints int             `gorm:"not null;default:0" json:"loyaltyPoints"`
	LastOrderAt   *time.Time      `json:"lastOrderAt,omitempty"`
}

type ClubMembership struct {
	DTO
	StoreID    uint      `gorm:"not null;index" json:"storeId"`
	CustomerID uint      `gorm:"not null;uniqueIndex" json:"customerId"`
	Tier       string    `gorm:"size:32" json:"tier"`
	JoinedAt   time.Time `json:"joinedAt"`
}

const (
	LedgerDebit  = "debit"
	LedgerCredit = "credit"
	LedgerIssue  = "issue"
)

// CreditTransaction is append-only.
type CreditTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	StoreID      uint            `gorm:"not null;index" json:"storeId"`
	CustomerID   uint            `gorm:"not null;index" json:"customerId"`
	OrderID      *uint           `gorm:"index" json:"orderId,omitempty"`
	Type         string          `gorm:"size:16;not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balanceAfter"`
	Reason       string          `json:"reason"`
}

type LoyaltyTransaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	StoreID    uint      `gorm:"not null;index" json:"storeId"`
	CustomerID uint      `gorm:"not null;index" json:"customerId"`
	OrderID    uint      `gorm:"not null;uniqueIndex" json:"orderId"`
	Points     int       `gorm:"not null" json:"points"`
}

type CustomerLoginInput struct {
	StoreSlug string `json:"storeSlug" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type TokenData struct {
	AccessToken string `json:"accessToken"`
}
