// Package catalog resolves cart references to authoritative catalog entries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound    = errors.New("catalog item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

const (
	uuidLength = 36
	// Old carts concatenated the variant id onto the product id.
	legacyCompositeLength = 2 * uuidLength
)

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog item %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

// Item is a resolved product or variant with its authoritative price and stock.
type Item struct {
	Product        model.Product
	Variant        *model.ProductVariant
	UnitPrice      decimal.Decimal
	Name           string
	VariantTitle   string
	TrackInventory bool
	Available      int
}

func (i Item) ProductID() uuid.UUID {
	return i.Product.ID
}

func (i Item) VariantID() *uuid.UUID {
	if i.Variant == nil {
		return nil
	}
	id := i.Variant.ID
	return &id
}

// Label is the human name used in buyer-facing errors.
func (i Item) Label() string {
	if i.VariantTitle != "" {
		return i.Name + " - " + i.VariantTitle
	}
	return i.Name
}

// Line pairs a cart line with the catalog entry it resolves to.
type Line struct {
	Input model.CartLineInput
	Item  Item
}

func (l Line) LineTotal() decimal.Decimal {
	return l.Item.UnitPrice.Mul(decimal.NewFromInt(int64(l.Input.Quantity)))
}

// SplitID returns the real product and variant ids for a cart reference,
// accepting the legacy composite form where variantID is empty.
func SplitID(productID, variantID string) (uuid.UUID, *uuid.UUID, error) {
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)

	if variantID == "" && len(productID) == legacyCompositeLength {
		variantID = productID[uuidLength:]
		productID = productID[:uuidLength]
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return uuid.Nil, nil, &NotFoundError{ID: productID}
	}
	if variantID == "" {
		return pid, nil, nil
	}
	vid, err := uuid.Parse(variantID)
	if err != nil {
		return uuid.Nil, nil, &NotFoundError{ID: variantID}
	}
	return pid, &vid, nil
}

func Resolve(ctx context.Context, db *gorm.DB, storeID uint, productID, variantID string) (*Item, error) {
	pid, vid, err := SplitID(productID, variantID)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND active = ?", pid, storeID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{ID: pid.String()}
		}
		return nil, err
	}

	item := &Item{
		Product:        product,
		UnitPrice:      product.Price,
		Name:           product.Name,
		TrackInventory: product.TrackInventory,
		Available:      product.Inventory,
	}
	if vid == nil {
		return item, nil
	}

	var variant model.ProductVariant
	if err := db.WithContext(ctx).
		Where("id = ? AND product_id = ? AND active = ?", *vid, pid, true).
		First(&variant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{ID: vid.String()}
		}
		return nil, err
	}
	item.Variant = &variant
	item.VariantTitle = variant.Title
	item.TrackInventory = variant.TrackInventory
	item.Available = variant.Inventory
	if variant.Price.Valid {
		item.UnitPrice = variant.Price.Decimal
	}
	return item, nil
}

func ResolveLines(ctx context.Context, db *gorm.DB, storeID uint, inputs []model.CartLineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("%s: %w", in.ProductID, ErrInvalidQuantity)
		}
		item, err := Resolve(ctx, db, storeID, in.ProductID, in.VariantID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{Input: in, Item: *item})
	}
	return lines, nil
}
