// Package checkout turns a cart into a durable order.
//
// Pricing and the stock pre-check run before any write. Everything from the
// customer upsert to the aggregate update then runs in one transaction; side
// effects are dispatched only after it commits.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/catalog"
	"storefront/constants"
	"storefront/dispatch"
	"storefront/helper"
	"storefront/inventory"
	"storefront/ledger"
	"storefront/model"
	"storefront/order"
	"storefront/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValidationError is a user-correctable rejection raised before any write.
// Key is a constants message key.
type ValidationError struct {
	Key string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Key + ": " + e.Err.Error()
	}
	return e.Key
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type Notifier interface {
	Dispatch(ev dispatch.OrderPaidEvent)
}

type Result struct {
	OrderID         uint
	OrderNumber     int64
	PublicCode      string
	Total           decimal.Decimal
	FinancialStatus string
	Breakdown       *pricing.Breakdown
}

type Service struct {
	db       *gorm.DB
	pricing  *pricing.Engine
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{
		db:       db,
		pricing:  pricing.NewEngine(db),
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Service) CreateOrder(ctx context.Context, in model.CreateOrderInput) (*Result, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Key: constants.CART_EMPTY}
	}
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Key: constants.ERROR_INPUT, Err: fmt.Errorf("quantity %d for %s", line.Quantity, line.ProductID)}
		}
	}
	store, err := order.NewRepository(s.db).StoreByID(ctx, in.StoreID)
	if err != nil {
		if errors.Is(err, order.ErrStoreNotFound) {
			return nil, &ValidationError{Key: constants.STORE_NOT_FOUND, Err: err}
		}
		return nil, s.infraError(in, "load store", err)
	}

	credit, err := s.creditAllowance(ctx, store.ID, in)
	if err != nil {
		return nil, s.infraError(in, "check session", err)
	}

	now := s.now()
	quote, err := s.pricing.Quote(ctx, pricing.Request{
		StoreID:         store.ID,
		Lines:           in.Items,
		Code:            in.CouponCode,
		ShippingMethod:  in.ShippingMethod,
		CreditRequested: credit,
		CustomerEmail:   in.Customer.Email,
		Now:             now,
	})
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		return nil, &ValidationError{Key: constants.ITEM_NOT_FOUND, Err: err}
	case errors.Is(err, pricing.ErrUnknownShippingMethod), errors.Is(err, catalog.ErrInvalidQuantity):
		return nil, &ValidationError{Key: constants.ERROR_INPUT, Err: err}
	case err != nil:
		return nil, s.infraError(in, "price cart", err)
	}

	if err := inventory.Check(quote.Lines); err != nil {
		return nil, err
	}
	logAnomalies(in, quote)

	var (
		o    *model.Order
		paid bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := order.UpsertCustomer(ctx, tx, store.ID, order.CustomerInput{
			Contact:           in.Customer,
			CreateAccount:     in.CreateAccount,
			Password:          in.Password,
			JoinClub:          in.JoinClub,
			SessionCustomerID: in.SessionCustomerID,
		})
		if err != nil {
			return err
		}

		number, err := order.NextOrderNumber(ctx, tx, store.ID)
		if err != nil {
			return err
		}

		b := quote
		o = newOrder(store, customer, number, in, b)
		if err := order.Insert(ctx, tx, o); err != nil {
			return err
		}

		if b, err = s.applyBalances(ctx, tx, o, customer, b); err != nil {
			return err
		}
		if b != quote {
			if err := updateTotals(ctx, tx, o, b); err != nil {
				return err
			}
		}

		if _, err := order.InsertItems(ctx, tx, o.ID, b.Lines); err != nil {
			return err
		}
		if err := inventory.Decrement(ctx, tx, b.Lines); err != nil {
			return err
		}
		if err := order.UpdateAggregates(ctx, tx, customer.ID, b.Total, now); err != nil {
			return err
		}

		if !b.Total.IsPositive() {
			if paid, err = order.MarkPaid(ctx, tx, o.ID, now); err != nil {
				return err
			}
			o.FinancialStatus = model.FinancialPaid
			o.PaidAt = &now
		}
		quote = b
		return nil
	})
	if err != nil {
		return nil, s.infraError(in, "create order", err)
	}

	log.Printf("[CHECKOUT] store=%d order=%d number=%d total=%s %s", store.ID, o.ID, o.OrderNumber, o.Total, o.Currency)
	if paid && s.notifier != nil {
		s.notifier.Dispatch(dispatch.OrderPaidEvent{StoreID: store.ID, OrderID: o.ID, PublicCode: o.PublicCode, Source: "checkout"})
	}

	return &Result{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		PublicCode:      o.PublicCode,
		Total:           o.Total,
		FinancialStatus: o.FinancialStatus,
		Breakdown:       quote,
	}, nil
}

// creditAllowance returns the credit the buyer may spend. Credit belongs to a
// signed-in customer, so guests and sessions for another email get none.
func (s *Service) creditAllowance(ctx context.Context, storeID uint, in model.CreateOrderInput) (decimal.Decimal, error) {
	if !in.CreditToApply.IsPositive() {
		return decimal.Zero, nil
	}
	if in.SessionCustomerID == 0 {
		log.Printf("[CHECKOUT] store=%d guest requested credit %s, ignored", storeID, in.CreditToApply)
		return decimal.Zero, nil
	}
	var owner model.Customer
	err := s.db.WithContext(ctx).Select("id", "email").
		Where("id = ? AND store_id = ?", in.SessionCustomerID, storeID).
		First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && owner.Email != pricing.NormalizeEmail(in.Customer.Email)) {
		log.Printf("[CHECKOUT] store=%d session customer %d cannot spend credit for %s", storeID, in.SessionCustomerID, in.Customer.Email)
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return in.CreditToApply, nil
}

// applyBalances claims the coupon, gift card and credit the quote relies on.
// A rejected claim reprices without that resource instead of failing.
func (s *Service) applyBalances(ctx context.Context, tx *gorm.DB, o *model.Order, customer *model.Customer, b *pricing.Breakdown) (*pricing.Breakdown, error) {
	if b.Coupon != nil {
		if _, err := ledger.ClaimCoupon(ctx, tx, b.Coupon.ID); err != nil {
			if !errors.Is(err, ledger.ErrUsageLimitReached) {
				return nil, err
			}
			log.Printf("[CHECKOUT] order %d: coupon %s exhausted at claim time, applying without it", o.ID, b.Coupon.Code)
			b = b.WithoutCoupon()
		}
	}

	if b.GiftCard != nil {
		if _, err := ledger.RedeemGiftCard(ctx, tx, b.GiftCard.ID, b.GiftCardAmount, &o.ID); err != nil {
			if !errors.Is(err, ledger.ErrInsufficientBalance) {
				return nil, err
			}
			log.Printf("[CHECKOUT] order %d: gift card %s balance changed, applying without it", o.ID, b.GiftCard.Code)
			b = b.WithoutGiftCard()
		}
	}

	if b.CreditUsed.IsPositive() {
		if _, err := ledger.DebitCredit(ctx, tx, customer.ID, b.CreditUsed, &o.ID, fmt.Sprintf("order #%d", o.OrderNumber)); err != nil {
			if !errors.Is(err, ledger.ErrInsufficientBalance) {
				return nil, err
			}
			log.Printf("[CHECKOUT] order %d: credit balance of customer %d changed, applying without it", o.ID, customer.ID)
			b = b.WithoutCredit()
		}
	}
	return b, nil
}

func newOrder(store *model.Store, customer *model.Customer, number int64, in model.CreateOrderInput, b *pricing.Breakdown) *model.Order {
	o := &model.Order{
		StoreID:         store.ID,
		OrderNumber:     number,
		CustomerID:      &customer.ID,
		Currency:        store.Currency,
		CustomerEmail:   customer.Email,
		CustomerName:    strings.TrimSpace(in.Customer.FirstName + " " + in.Customer.LastName),
		CustomerPhone:   in.Customer.Phone,
		AddressSnapshot: helper.SnapshotAddress(in.Address),
		ShippingMethod:  in.ShippingMethod,
		Note:            in.Note,
		PaymentMethod:   in.PaymentMethod,
		Locale:          in.Locale,
	}
	if o.Locale == "" {
		o.Locale = store.Locale
	}
	setTotals(o, b)
	return o
}

func setTotals(o *model.Order, b *pricing.Breakdown) {
	o.Subtotal = b.Subtotal
	o.DiscountAmount = b.DiscountAmount()
	o.DiscountDetails = b.Discounts
	o.GiftCardAmount = b.GiftCardAmount
	o.CreditUsed = b.CreditUsed
	o.Shipping = b.Shipping
	o.Tax = decimal.Zero
	o.Total = b.Total
	o.DiscountCode = nil
	if b.Coupon != nil {
		code := b.Coupon.Code
		o.DiscountCode = &code
	}
}

func updateTotals(ctx context.Context, tx *gorm.DB, o *model.Order, b *pricing.Breakdown) error {
	setTotals(o, b)
	return tx.WithContext(ctx).Model(o).
		Select("discount_amount", "discount_details", "gift_card_amount", "credit_used", "total", "discount_code").
		Updates(o).Error
}

// logAnomalies records where the client's figures disagree with ours. The
// order is always priced server-side.
func logAnomalies(in model.CreateOrderInput, b *pricing.Breakdown) {
	check := func(field string, client, server decimal.Decimal) {
		if client.IsZero() || client.Round(2).Equal(server) {
			return
		}
		log.Printf("[CHECKOUT] price anomaly store=%d email=%s field=%s client=%s server=%s",
			in.StoreID, in.Customer.Email, field, client, server)
	}
	check("subtotal", in.ClientSubtotal, b.Subtotal)
	check("discount", in.ClientDiscount, b.DiscountAmount().Add(b.GiftCardAmount))
	check("shipping", in.ClientShipping, b.Shipping)
	check("total", in.ClientTotal, b.Total)
	for _, l := range b.Lines {
		if !l.Input.Price.IsZero() && !l.Input.Price.Equal(l.Item.UnitPrice) {
			log.Printf("[CHECKOUT] price anomaly store=%d item=%s client=%s server=%s",
				in.StoreID, l.Item.ProductID(), l.Input.Price, l.Item.UnitPrice)
		}
	}
}

func (s *Service) infraError(in model.CreateOrderInput, step string, err error) error {
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, fmt.Sprintf("%s%s x%d", it.ProductID, it.VariantID, it.Quantity))
	}
	log.Printf("[CHECKOUT] %s failed store=%d email=%s items=[%s]: %v",
		step, in.StoreID, in.Customer.Email, strings.Join(ids, ", "), err)
	return fmt.Errorf("%s: %w", step, err)
}
