package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/catalog"
	"storefront/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrUnknownShippingMethod = errors.New("unknown shipping method")

type Request struct {
	StoreID         uint
	Lines           []model.CartLineInput
	Code            string
	ShippingMethod  string
	CreditRequested decimal.Decimal
	CustomerEmail   string
	Now             time.Time
}

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Quote prices a cart from the database. Client prices on the lines are ignored.
func (e *Engine) Quote(ctx context.Context, req Request) (*Breakdown, error) {
	if req.Now.IsZero() {
		req.Now = time.Now()
	}
	db := e.db.WithContext(ctx)

	lines, err := catalog.ResolveLines(ctx, e.db, req.StoreID, req.Lines)
	if err != nil {
		return nil, err
	}

	in := Input{
		Lines:           lines,
		CreditRequested: clampZero(req.CreditRequested),
		Now:             req.Now,
	}

	if err := db.
		Where("store_id = ? AND active = ? AND applies_to = ?", req.StoreID, true, model.ScopeAll).
		Where("(starts_at IS NULL OR starts_at <= ?) AND (ends_at IS NULL OR ends_at >= ?)", req.Now, req.Now).
		Order("priority desc, id asc").
		Find(&in.Automatic).Error; err != nil {
		return nil, fmt.Errorf("load automatic discounts: %w", err)
	}

	if req.ShippingMethod != "" {
		var rate model.ShippingRate
		if err := db.Where("store_id = ? AND code = ? AND active = ?", req.StoreID, req.ShippingMethod, true).
			First(&rate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownShippingMethod
			}
			return nil, fmt.Errorf("load shipping rate: %w", err)
		}
		in.ShippingRate = &rate
	}

	if code := NormalizeCode(req.Code); code != "" {
		giftCard, coupon, err := e.lookupCode(ctx, req.StoreID, code)
		if err != nil {
			return nil, err
		}
		in.GiftCard = giftCard
		in.Coupon = coupon
	}

	if in.CreditRequested.IsPositive() && req.CustomerEmail != "" {
		var customer model.Customer
		err := db.Select("credit_balance").
			Where("store_id = ? AND email = ?", req.StoreID, NormalizeEmail(req.CustomerEmail)).
			First(&customer).Error
		switch {
		case err == nil:
			in.CreditAvailable = customer.CreditBalance
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, fmt.Errorf("load customer credit: %w", err)
		}
	}

	return Compute(in), nil
}

// lookupCode resolves a code to a gift card first, then a coupon. Unknown
// codes return neither and no error.
func (e *Engine) lookupCode(ctx context.Context, storeID uint, code string) (*model.GiftCard, *model.Coupon, error) {
	db := e.db.WithContext(ctx)

	var giftCard model.GiftCard
	err := db.Where("store_id = ? AND UPPER(code) = ? AND status = ? AND balance > 0", storeID, code, model.GiftCardActive).
		First(&giftCard).Error
	if err == nil {
		return &giftCard, nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("load gift card: %w", err)
	}

	var coupon model.Coupon
	err = db.Where("store_id = ? AND UPPER(code) = ?", storeID, code).First(&coupon).Error
	if err == nil {
		return nil, &coupon, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("load coupon: %w", err)
	}
	return nil, nil, nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
