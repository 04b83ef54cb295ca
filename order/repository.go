// Package order is the system of record for orders: number allocation,
// customer upsert, header and item persistence.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/catalog"
	"storefront/database"
	"storefront/helper"
	"storefront/model"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrStoreNotFound = errors.New("store not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NextOrderNumber advances the store counter and reads it back in one
// statement, so concurrent allocations never collide.
func NextOrderNumber(ctx context.Context, tx *gorm.DB, storeID uint) (int64, error) {
	db := tx.WithContext(ctx)
	var row struct {
		OrderCounter     int64
		OrderNumberStart int64
	}
	stmt := "UPDATE stores SET order_counter = order_counter + 1 WHERE id = ? AND active = ?"

	if database.SupportsReturning(db) {
		res := db.Raw(stmt+" RETURNING order_counter, order_number_start", storeID, true).Scan(&row)
		if res.Error != nil {
			return 0, fmt.Errorf("allocate order number: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, ErrStoreNotFound
		}
		return row.OrderNumberStart + row.OrderCounter, nil
	}

	res := db.Exec(stmt, storeID, true)
	if res.Error != nil {
		return 0, fmt.Errorf("allocate order number: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrStoreNotFound
	}
	if err := db.Raw("SELECT order_counter, order_number_start FROM stores WHERE id = ?", storeID).Scan(&row).Error; err != nil {
		return 0, fmt.Errorf("read order number: %w", err)
	}
	return row.OrderNumberStart + row.OrderCounter, nil
}

type CustomerInput struct {
	Contact       model.ContactInput
	CreateAccount bool
	Password      string
	JoinClub      bool
	// SessionCustomerID is the signed-in customer, 0 for guests.
	SessionCustomerID uint
}

// UpsertCustomer updates the customer with this email in place or inserts a
// new one. An insert that loses a race on the (store, email) index falls back
// to updating the winner. A registered customer is only changed by their own
// session, and checkout never replaces an existing password.
func UpsertCustomer(ctx context.Context, tx *gorm.DB, storeID uint, in CustomerInput) (*model.Customer, error) {
	db := tx.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(in.Contact.Email))

	var incoming model.Customer
	if err := copier.Copy(&incoming, &in.Contact); err != nil {
		return nil, fmt.Errorf("copy contact: %w", err)
	}
	incoming.StoreID = storeID
	incoming.Email = email

	if in.CreateAccount && in.Password != "" {
		hash, err := helper.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		incoming.Password = &hash
	}

	customer, err := helper.GetCustomerByEmail(db, storeID, email)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "email"}},
			DoNothing: true,
		}).Create(&incoming)
		if res.Error != nil {
			return nil, fmt.Errorf("insert customer: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			customer = &incoming
		} else {
			customer, err = helper.GetCustomerByEmail(db, storeID, email)
			if err != nil {
				return nil, fmt.Errorf("reload customer: %w", err)
			}
			if customer == nil {
				return nil, fmt.Errorf("reload customer: %w", gorm.ErrRecordNotFound)
			}
		}
	}

	owner := customer.Password == nil || (in.SessionCustomerID != 0 && in.SessionCustomerID == customer.ID)
	if customer != &incoming && !owner {
		log.Printf("[ORDER] store=%d guest checkout for registered customer %d, profile left unchanged", storeID, customer.ID)
	}
	if customer != &incoming && owner {
		updates := map[string]any{
			"first_name":        incoming.FirstName,
			"last_name":         incoming.LastName,
			"accepts_marketing": incoming.AcceptsMarketing,
		}
		if incoming.Phone != "" {
			updates["phone"] = incoming.Phone
		}
		if incoming.Password != nil && customer.Password == nil {
			updates["password"] = *incoming.Password
		}
		if err := db.Model(customer).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}

	if in.JoinClub {
		membership := model.ClubMembership{StoreID: storeID, CustomerID: customer.ID, Tier: "member", JoinedAt: time.Now()}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).Create(&membership).Error; err != nil {
			return nil, fmt.Errorf("join club: %w", err)
		}
	}
	return customer, nil
}

func NewPublicCode() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Insert writes the order header. Totals must already be server-computed.
func Insert(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	if o.PublicCode == "" {
		o.PublicCode = NewPublicCode()
	}
	if o.Status == "" {
		o.Status = model.OrderOpen
	}
	if o.FinancialStatus == "" {
		o.FinancialStatus = model.FinancialPending
	}
	if o.FulfillmentStatus == "" {
		o.FulfillmentStatus = model.FulfillmentUnfulfilled
	}
	if o.ShippingAddress == "" {
		o.ShippingAddress = helper.JoinAddress(o.AddressSnapshot)
	}
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// InsertItems writes one row per cart line. The client's name is kept when
// given; otherwise the current catalog name is used.
func InsertItems(ctx context.Context, tx *gorm.DB, orderID uint, lines []catalog.Line) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		name := strings.TrimSpace(l.Input.Name)
		if name == "" {
			name = l.Item.Name
		}
		items = append(items, model.OrderItem{
			OrderID:      orderID,
			ProductID:    l.Item.ProductID(),
			VariantID:    l.Item.VariantID(),
			Name:         name,
			VariantTitle: l.Item.VariantTitle,
			UnitPrice:    l.Item.UnitPrice,
			Quantity:     l.Input.Quantity,
			LineTotal:    l.LineTotal(),
			Properties:   l.Input.Properties,
		})
	}
	if len(items) == 0 {
		return items, nil
	}
	if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}
	return items, nil
}

func UpdateAggregates(ctx context.Context, tx *gorm.DB, customerID uint, total decimal.Decimal, at time.Time) error {
	err := tx.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", customerID).Updates(map[string]any{
		"orders_count":  gorm.Expr("orders_count + 1"),
		"total_spent":   gorm.Expr("total_spent + ?", total),
		"last_order_at": at,
	}).Error
	if err != nil {
		return fmt.Errorf("update customer aggregates: %w", err)
	}
	return nil
}

// MarkPaid flips an order to paid unless it already is. It reports whether
// this call made the change, which callers use to dispatch exactly once.
func MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND financial_status <> ?", orderID, model.FinancialPaid).
		Updates(map[string]any{"financial_status": model.FinancialPaid, "paid_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("mark order paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func MarkFailed(ctx context.Context, tx *gorm.DB, orderID uint) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND financial_status = ?", orderID, model.FinancialPending).
		Update("financial_status", model.FinancialFailed).Error
}

func (r *Repository) GetByPublicCode(ctx context.Context, code string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("public_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetByID(ctx context.Context, storeID, orderID uint) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND store_id = ?", orderID, storeID).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repository) StoreBySlug(ctx context.Context, slug string) (*model.Store, error) {
	var s model.Store
	if err := r.db.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) StoreByID(ctx context.Context, id uint) (*model.Store, error) {
	var s model.Store
	if err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}
