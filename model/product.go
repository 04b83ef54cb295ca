package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID             uuid.UUID        `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	StoreID        uint             `gorm:"index;not null" json:"storeId"`
	Name           string           `gorm:"not null" json:"name"`
	Price          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	TrackInventory bool             `json:"trackInventory"`
	Inventory      int              `gorm:"not null;default:0" json:"inventory"`
	Active         bool             `json:"active"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ProductID uuid.UUID `gorm:"type:varchar(36);index;not null" json:"productId"`
	Title     string    `json:"title"`
	// Price overrides the product price when set.
	Price          decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"price"`
	TrackInventory bool                `json:"trackInventory"`
	Inventory      int                 `gorm:"not null;default:0" json:"inventory"`
	Active         bool                `json:"active"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
