// Package pricing recomputes checkout totals from authoritative catalog data.
//
// Order of application: automatic discounts against the catalog subtotal, then
// one coupon or gift card against what remains, then shipping and store credit.
// Every capping step clamps at zero so no intermediate amount can go negative.
package pricing

import (
	"sort"
	"time"

	"storefront/catalog"
	"storefront/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Input struct {
	Lines           []catalog.Line
	Automatic       []model.AutomaticDiscount
	Coupon          *model.Coupon
	GiftCard        *model.GiftCard
	ShippingRate    *model.ShippingRate
	CreditRequested decimal.Decimal
	CreditAvailable decimal.Decimal
	Now             time.Time
}

// Breakdown is the final price of a cart. Treat it as immutable; the With*
// helpers return a new breakdown.
type Breakdown struct {
	Lines            []catalog.Line
	Subtotal         decimal.Decimal
	AutoDiscount     decimal.Decimal
	CouponDiscount   decimal.Decimal
	ShippingDiscount decimal.Decimal
	GiftCardAmount   decimal.Decimal
	Shipping         decimal.Decimal
	CreditUsed       decimal.Decimal
	Total            decimal.Decimal
	Discounts        []model.DiscountDetail

	// Coupon and GiftCard are set only when they contributed.
	Coupon   *model.Coupon
	GiftCard *model.GiftCard

	input Input
}

// DiscountAmount is what the order header stores as its discount.
func (b *Breakdown) DiscountAmount() decimal.Decimal {
	return b.AutoDiscount.Add(b.CouponDiscount).Add(b.ShippingDiscount)
}

func (b *Breakdown) TotalQuantity() int {
	n := 0
	for _, l := range b.Lines {
		n += l.Input.Quantity
	}
	return n
}

func (b *Breakdown) WithoutCoupon() *Breakdown {
	in := b.input
	in.Coupon = nil
	return Compute(in)
}

func (b *Breakdown) WithoutGiftCard() *Breakdown {
	in := b.input
	in.GiftCard = nil
	return Compute(in)
}

func (b *Breakdown) WithoutCredit() *Breakdown {
	in := b.input
	in.CreditRequested = decimal.Zero
	return Compute(in)
}

func Compute(in Input) *Breakdown {
	b := &Breakdown{
		Lines:     in.Lines,
		Discounts: []model.DiscountDetail{},
		input:     in,
	}

	subtotal := decimal.Zero
	quantity := 0
	for _, l := range in.Lines {
		subtotal = subtotal.Add(l.LineTotal())
		quantity += l.Input.Quantity
	}
	b.Subtotal = round(subtotal)

	autoTotal := decimal.Zero
	for _, d := range eligibleAutomatic(in.Automatic, b.Subtotal, quantity, in.Now) {
		remaining := b.Subtotal.Sub(autoTotal)
		var amount decimal.Decimal
		switch d.Type {
		case model.DiscountPercentage:
			amount = b.Subtotal.Mul(d.Value).Div(hundred)
		case model.DiscountFixedAmount:
			amount = d.Value
		default:
			continue
		}
		amount = capAt(round(amount), remaining)
		if amount.IsZero() {
			continue
		}
		autoTotal = autoTotal.Add(amount)
		b.Discounts = append(b.Discounts, model.DiscountDetail{Kind: "automatic", Title: d.Title, Amount: amount})
	}
	b.AutoDiscount = autoTotal
	afterAuto := b.Subtotal.Sub(autoTotal)

	shipping := decimal.Zero
	if in.ShippingRate != nil {
		shipping = in.ShippingRate.Price
		if in.ShippingRate.FreeOver.Valid && b.Subtotal.GreaterThanOrEqual(in.ShippingRate.FreeOver.Decimal) {
			shipping = decimal.Zero
		}
	}
	b.Shipping = round(shipping)

	switch {
	case in.GiftCard != nil:
		if GiftCardUsable(in.GiftCard, in.Now) {
			amount := capAt(in.GiftCard.Balance, afterAuto)
			if amount.IsPositive() {
				b.GiftCardAmount = amount
				b.GiftCard = in.GiftCard
				b.Discounts = append(b.Discounts, model.DiscountDetail{Kind: "gift_card", Code: in.GiftCard.Code, Title: "Gift card", Amount: amount})
			}
		}
	case in.Coupon != nil:
		if CouponEligible(in.Coupon, b.Subtotal, in.Now) {
			applyCoupon(b, in.Coupon, afterAuto)
		}
	}

	remaining := afterAuto.Sub(b.CouponDiscount).Sub(b.GiftCardAmount).Add(b.Shipping).Sub(b.ShippingDiscount)
	remaining = clampZero(remaining)

	credit := decimal.Min(in.CreditRequested, in.CreditAvailable)
	b.CreditUsed = capAt(round(credit), remaining)
	b.Total = clampZero(remaining.Sub(b.CreditUsed))
	return b
}

func applyCoupon(b *Breakdown, c *model.Coupon, afterAuto decimal.Decimal) {
	var amount decimal.Decimal
	switch c.Type {
	case model.DiscountPercentage:
		amount = capAt(round(afterAuto.Mul(c.Value).Div(hundred)), afterAuto)
	case model.DiscountFixedAmount:
		amount = capAt(c.Value, afterAuto)
	case model.DiscountBuyXGetY:
		amount = capAt(round(buyXGetY(b.Lines, c)), afterAuto)
	case model.DiscountFreeShipping:
		if b.Shipping.IsPositive() {
			b.ShippingDiscount = b.Shipping
			b.Coupon = c
			b.Discounts = append(b.Discounts, model.DiscountDetail{Kind: "shipping", Code: c.Code, Title: "Free shipping", Amount: b.Shipping})
		}
		return
	default:
		return
	}
	if !amount.IsPositive() {
		return
	}
	b.CouponDiscount = amount
	b.Coupon = c
	b.Discounts = append(b.Discounts, model.DiscountDetail{Kind: "coupon", Code: c.Code, Title: c.Code, Amount: amount})
}

// buyXGetY discounts floor(qty/(buy+get))*get units of every line by Value percent.
func buyXGetY(lines []catalog.Line, c *model.Coupon) decimal.Decimal {
	group := c.BuyQuantity + c.GetQuantity
	if c.BuyQuantity <= 0 || c.GetQuantity <= 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, l := range lines {
		free := (l.Input.Quantity / group) * c.GetQuantity
		if free == 0 {
			continue
		}
		total = total.Add(l.Item.UnitPrice.Mul(decimal.NewFromInt(int64(free))).Mul(c.Value).Div(hundred))
	}
	return total
}

func eligibleAutomatic(all []model.AutomaticDiscount, subtotal decimal.Decimal, quantity int, now time.Time) []model.AutomaticDiscount {
	out := make([]model.AutomaticDiscount, 0, len(all))
	for _, d := range all {
		if !d.Active || d.AppliesTo != model.ScopeAll || !inWindow(d.StartsAt, d.EndsAt, now) {
			continue
		}
		if d.MinimumAmount.Valid && subtotal.LessThan(d.MinimumAmount.Decimal) {
			continue
		}
		if d.MinimumQuantity != nil && quantity < *d.MinimumQuantity {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CouponEligible checks activity, window, usage and the minimum against the
// subtotal before any automatic discount.
func CouponEligible(c *model.Coupon, subtotal decimal.Decimal, now time.Time) bool {
	if !c.Active || !inWindow(c.StartsAt, c.EndsAt, now) {
		return false
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false
	}
	if c.MinimumAmount.Valid && subtotal.LessThan(c.MinimumAmount.Decimal) {
		return false
	}
	return true
}

func GiftCardUsable(g *model.GiftCard, now time.Time) bool {
	if g.Status != model.GiftCardActive || !g.Balance.IsPositive() {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

func inWindow(start, end *time.Time, now time.Time) bool {
	if start != nil && now.Before(*start) {
		return false
	}
	if end != nil && now.After(*end) {
		return false
	}
	return true
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// capAt returns min(d, limit) floored at zero.
func capAt(d, limit decimal.Decimal) decimal.Decimal {
	return clampZero(decimal.Min(d, clampZero(limit)))
}
