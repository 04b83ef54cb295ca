package pricing

import (
	"testing"
	"time"

	"storefront/catalog"
	"storefront/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(price string, qty int) catalog.Line {
	return catalog.Line{
		Input: model.CartLineInput{Quantity: qty},
		Item:  catalog.Item{Name: "item", UnitPrice: d(price)},
	}
}

func auto(kind, value string, priority int) model.AutomaticDiscount {
	return model.AutomaticDiscount{Title: kind + " " + value, Type: kind, Value: d(value), Priority: priority, AppliesTo: model.ScopeAll, Active: true}
}

func coupon(kind, value string) *model.Coupon {
	return &model.Coupon{Code: "CODE", Type: kind, Value: d(value), Active: true}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestComputeIgnoresClientPrice(t *testing.T) {
	l := line("40", 3)
	l.Input.Price = d("1")
	b := Compute(Input{Lines: []catalog.Line{l}, Now: time.Now()})
	assertMoney(t, "120", b.Subtotal, "subtotal")
	assertMoney(t, "120", b.Total, "total")
}

func TestCouponAppliesAfterAutomaticDiscounts(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		coupon    *model.Coupon
		wantCoup  string
		wantTotal string
	}{
		{"fixed 50 against 900", coupon(model.DiscountFixedAmount, "50"), "50", "850"},
		{"10 percent of 900", coupon(model.DiscountPercentage, "10"), "90", "810"},
		{"fixed capped at remainder", coupon(model.DiscountFixedAmount, "5000"), "900", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Compute(Input{
				Lines:     []catalog.Line{line("1000", 1)},
				Automatic: []model.AutomaticDiscount{auto(model.DiscountPercentage, "10", 1)},
				Coupon:    tt.coupon,
				Now:       now,
			})
			assertMoney(t, "1000", b.Subtotal, "subtotal")
			assertMoney(t, "100", b.AutoDiscount, "auto")
			assertMoney(t, tt.wantCoup, b.CouponDiscount, "coupon")
			assertMoney(t, tt.wantTotal, b.Total, "total")
		})
	}
}

func TestCouponMinimumUsesOriginalSubtotal(t *testing.T) {
	c := coupon(model.DiscountPercentage, "10")
	c.MinimumAmount = decimal.NewNullDecimal(d("1000"))

	b := Compute(Input{
		Lines:     []catalog.Line{line("1000", 1)},
		Automatic: []model.AutomaticDiscount{auto(model.DiscountPercentage, "10", 1)},
		Coupon:    c,
		Now:       time.Now(),
	})
	// post-auto amount is 900, still eligible against 1000
	assertMoney(t, "90", b.CouponDiscount, "coupon")
	assert.NotNil(t, b.Coupon)
}

func TestAutomaticDiscountsStackAndCap(t *testing.T) {
	minQty := 3
	gated := auto(model.DiscountFixedAmount, "30", 5)
	gated.MinimumQuantity = &minQty
	expired := auto(model.DiscountFixedAmount, "10", 9)
	past := time.Now().Add(-time.Hour)
	expired.EndsAt = &past
	scoped := auto(model.DiscountFixedAmount, "10", 9)
	scoped.AppliesTo = model.ScopeCategory

	b := Compute(Input{
		Lines: []catalog.Line{line("50", 2)},
		Automatic: []model.AutomaticDiscount{
			auto(model.DiscountPercentage, "60", 1),
			auto(model.DiscountPercentage, "60", 2),
			gated, expired, scoped,
		},
		Now: time.Now(),
	})
	// 60 then min(60, 40) = 40; gated/expired/scoped excluded
	assertMoney(t, "100", b.AutoDiscount, "auto")
	assertMoney(t, "0", b.Total, "total")
	assert.Len(t, b.Discounts, 2)
}

func TestIneligibleCouponsContributeZero(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	limit := 1

	inactive := coupon(model.DiscountPercentage, "10")
	inactive.Active = false
	notStarted := coupon(model.DiscountPercentage, "10")
	notStarted.StartsAt = &future
	ended := coupon(model.DiscountPercentage, "10")
	ended.EndsAt = &past
	exhausted := coupon(model.DiscountPercentage, "10")
	exhausted.UsageLimit = &limit
	exhausted.UsageCount = 1
	belowMin := coupon(model.DiscountPercentage, "10")
	belowMin.MinimumAmount = decimal.NewNullDecimal(d("500"))

	for name, c := range map[string]*model.Coupon{
		"inactive": inactive, "not started": notStarted, "ended": ended,
		"exhausted": exhausted, "below minimum": belowMin,
	} {
		t.Run(name, func(t *testing.T) {
			b := Compute(Input{Lines: []catalog.Line{line("100", 1)}, Coupon: c, Now: now})
			assert.True(t, b.CouponDiscount.IsZero())
			assert.Nil(t, b.Coupon)
			assertMoney(t, "100", b.Total, "total")
		})
	}
}

func TestGiftCardUsesMinOfBalanceAndRemainder(t *testing.T) {
	card := &model.GiftCard{Code: "GIFT", Balance: d("500"), Status: model.GiftCardActive}
	b := Compute(Input{
		Lines:        []catalog.Line{line("300", 1)},
		Automatic:    []model.AutomaticDiscount{auto(model.DiscountFixedAmount, "100", 1)},
		GiftCard:     card,
		ShippingRate: &model.ShippingRate{Price: d("15")},
		Now:          time.Now(),
	})
	assertMoney(t, "200", b.GiftCardAmount, "gift card")
	assertMoney(t, "15", b.Total, "total")
	assert.Equal(t, card, b.GiftCard)

	small := &model.GiftCard{Code: "GIFT", Balance: d("25"), Status: model.GiftCardActive}
	b = Compute(Input{Lines: []catalog.Line{line("300", 1)}, GiftCard: small, Now: time.Now()})
	assertMoney(t, "25", b.GiftCardAmount, "gift card")
	assertMoney(t, "275", b.Total, "total")
}

func TestCreditIsCappedByBalanceAndRemainder(t *testing.T) {
	b := Compute(Input{
		Lines:           []catalog.Line{line("80", 1)},
		ShippingRate:    &model.ShippingRate{Price: d("10")},
		CreditRequested: d("500"),
		CreditAvailable: d("70"),
		Now:             time.Now(),
	})
	assertMoney(t, "70", b.CreditUsed, "credit")
	assertMoney(t, "20", b.Total, "total")

	b = Compute(Input{
		Lines:           []catalog.Line{line("80", 1)},
		CreditRequested: d("500"),
		CreditAvailable: d("500"),
		Now:             time.Now(),
	})
	assertMoney(t, "80", b.CreditUsed, "credit")
	assertMoney(t, "0", b.Total, "total")
}

func TestFreeShippingAndBuyXGetY(t *testing.T) {
	b := Compute(Input{
		Lines:        []catalog.Line{line("40", 1)},
		Coupon:       coupon(model.DiscountFreeShipping, "0"),
		ShippingRate: &model.ShippingRate{Price: d("12.50")},
		Now:          time.Now(),
	})
	assertMoney(t, "12.50", b.ShippingDiscount, "shipping discount")
	assertMoney(t, "40", b.Total, "total")
	assertMoney(t, "12.50", b.DiscountAmount(), "discount amount")

	bogo := coupon(model.DiscountBuyXGetY, "100")
	bogo.BuyQuantity = 2
	bogo.GetQuantity = 1
	b = Compute(Input{Lines: []catalog.Line{line("10", 7), line("3", 2)}, Coupon: bogo, Now: time.Now()})
	// 7 units -> 2 free; 2 units -> none
	assertMoney(t, "20", b.CouponDiscount, "bxgy")
	assertMoney(t, "56", b.Total, "total")
}

func TestShippingFreeOverThreshold(t *testing.T) {
	rate := &model.ShippingRate{Price: d("20"), FreeOver: decimal.NewNullDecimal(d("150"))}
	b := Compute(Input{Lines: []catalog.Line{line("150", 1)}, ShippingRate: rate, Now: time.Now()})
	assertMoney(t, "0", b.Shipping, "shipping")

	b = Compute(Input{Lines: []catalog.Line{line("149.99", 1)}, ShippingRate: rate, Now: time.Now()})
	assertMoney(t, "20", b.Shipping, "shipping")
}

func TestWithoutCouponReprices(t *testing.T) {
	b := Compute(Input{
		Lines:           []catalog.Line{line("200", 1)},
		Coupon:          coupon(model.DiscountPercentage, "10"),
		CreditRequested: d("1000"),
		CreditAvailable: d("190"),
		Now:             time.Now(),
	})
	assertMoney(t, "180", b.CreditUsed, "credit")
	assertMoney(t, "0", b.Total, "total")

	nb := b.WithoutCoupon()
	assert.Nil(t, nb.Coupon)
	assertMoney(t, "190", nb.CreditUsed, "credit")
	assertMoney(t, "10", nb.Total, "total")

	nc := nb.WithoutCredit()
	assertMoney(t, "200", nc.Total, "total")
	// original untouched
	assertMoney(t, "20", b.CouponDiscount, "coupon")
}
