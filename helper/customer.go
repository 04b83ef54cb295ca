package helper

import (
	"errors"

	"storefront/model"

	"gorm.io/gorm"
)

// GetCustomerByEmail returns nil without error when the store has no such customer.
func GetCustomerByEmail(tx *gorm.DB, storeID uint, email string) (*model.Customer, error) {
	var customer model.Customer
	if err := tx.Where(&model.Customer{StoreID: storeID, Email: email}).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}
