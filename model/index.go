package model

import "time"

type TokenClaim struct {
	CustomerId uint   `json:"customerId"`
	StoreId    uint   `json:"storeId"`
	Username   string `json:"username"`
}

type DTO struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ResponseCustom struct {
	Rows       any   `json:"rows"`
	Limit      *int  `json:"limit"`
	Page       *int  `json:"page"`
	TotalCount int64 `json:"totalCount"`
}

// All returns every model owned by the checkout engine, in migration order.
func All() []any {
	return []any{
		&Store{},
		&PaymentProviderConfig{},
		&ShippingRate{},
		&Product{},
		&ProductVariant{},
		&Customer{},
		&ClubMembership{},
		&CreditTransaction{},
		&Coupon{},
		&AutomaticDiscount{},
		&GiftCard{},
		&GiftCardTransaction{},
		&Order{},
		&OrderItem{},
		&PaymentTransaction{},
		&LoyaltyTransaction{},
	}
}
