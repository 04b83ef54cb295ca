// Package inventory checks stock before an order is created and decrements it
// afterwards. The check is advisory; two checkouts can both pass it.
package inventory

import (
	"context"
	"fmt"

	"storefront/catalog"
	"storefront/database"
	"storefront/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InsufficientStockError struct {
	Item      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

type key struct {
	product uuid.UUID
	variant uuid.UUID
}

func keyOf(item catalog.Item) key {
	k := key{product: item.ProductID()}
	if v := item.VariantID(); v != nil {
		k.variant = *v
	}
	return k
}

// Check rejects the cart when any tracked item is requested beyond its stock.
// Quantities of the same item on several lines are summed.
func Check(lines []catalog.Line) error {
	requested := map[key]int{}
	order := []key{}
	items := map[key]catalog.Item{}
	for _, l := range lines {
		if !l.Item.TrackInventory {
			continue
		}
		k := keyOf(l.Item)
		if _, ok := items[k]; !ok {
			order = append(order, k)
			items[k] = l.Item
		}
		requested[k] += l.Input.Quantity
	}
	for _, k := range order {
		item := items[k]
		if requested[k] > item.Available {
			return &InsufficientStockError{Item: item.Label(), Requested: requested[k], Available: item.Available}
		}
	}
	return nil
}

// Decrement subtracts each tracked line from stock, clamped at zero.
func Decrement(ctx context.Context, tx *gorm.DB, lines []catalog.Line) error {
	clamp := database.Greatest(tx) + "(inventory - ?, 0)"
	for _, l := range lines {
		if !l.Item.TrackInventory {
			continue
		}
		var q *gorm.DB
		if v := l.Item.VariantID(); v != nil {
			q = tx.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", *v)
		} else {
			q = tx.WithContext(ctx).Model(&model.Product{}).Where("id = ?", l.Item.ProductID())
		}
		if err := q.Update("inventory", gorm.Expr(clamp, l.Input.Quantity)).Error; err != nil {
			return fmt.Errorf("decrement inventory of %s: %w", l.Item.Label(), err)
		}
	}
	return nil
}

type LowStockItem struct {
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	Name         string
	VariantTitle string
	Inventory    int
}

// LowStock re-reads the ordered items and returns the tracked ones at or below
// threshold.
func LowStock(ctx context.Context, db *gorm.DB, items []model.OrderItem, threshold int) ([]LowStockItem, error) {
	out := []LowStockItem{}
	seen := map[key]bool{}
	for _, it := range items {
		k := key{product: it.ProductID}
		if it.VariantID != nil {
			k.variant = *it.VariantID
		}
		if seen[k] {
			continue
		}
		seen[k] = true

		var product model.Product
		if err := db.WithContext(ctx).First(&product, "id = ?", it.ProductID).Error; err != nil {
			return nil, err
		}
		entry := LowStockItem{ProductID: product.ID, Name: product.Name}
		tracked, level := product.TrackInventory, product.Inventory
		if it.VariantID != nil {
			var variant model.ProductVariant
			if err := db.WithContext(ctx).First(&variant, "id = ?", *it.VariantID).Error; err != nil {
				return nil, err
			}
			entry.VariantID = &variant.ID
			entry.VariantTitle = variant.Title
			tracked, level = variant.TrackInventory, variant.Inventory
		}
		if !tracked || level > threshold {
			continue
		}
		entry.Inventory = level
		out = append(out, entry)
	}
	return out, nil
}
