package payment

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"storefront/database/dbtest"
	"storefront/dispatch"
	"storefront/model"
	"storefront/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []dispatch.OrderPaidEvent
}

func (r *recorder) Dispatch(ev dispatch.OrderPaidEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	db    *gorm.DB
	store *model.Store
	order *model.Order
	svc   *Service
	rec   *recorder
}

func setup(t *testing.T, total string) *fixture {
	t.Helper()
	db := dbtest.New(t)
	store := dbtest.Store(t, db, "shop")
	require.NoError(t, db.Create(&model.PaymentProviderConfig{StoreID: store.ID, Provider: SandboxName, Active: true}).Error)

	o := &model.Order{
		StoreID:       store.ID,
		OrderNumber:   1001,
		Subtotal:      dbtest.D(total),
		Total:         dbtest.D(total),
		Currency:      "USD",
		CustomerEmail: "buyer@example.com",
	}
	require.NoError(t, order.Insert(context.Background(), db, o))

	rec := &recorder{}
	return &fixture{db: db, store: store, order: o, svc: NewService(db, rec, "https://shop.test"), rec: rec}
}

func (f *fixture) charge(token string) (*ChargeOutcome, error) {
	return f.svc.Charge(context.Background(), model.ChargePaymentInput{
		StoreSlug: f.store.Slug,
		Token:     token,
		OrderID:   f.order.ID,
		Amount:    dbtest.D("1"),
		CardLast4: "4242",
	})
}

func (f *fixture) reload(t *testing.T) model.Order {
	t.Helper()
	var o model.Order
	require.NoError(t, f.db.First(&o, f.order.ID).Error)
	return o
}

func TestChargeApproved(t *testing.T) {
	f := setup(t, "49.90")

	out, err := f.charge("tok_4242")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "sbx_"+out.Reference, out.TransactionID)

	assert.Equal(t, model.FinancialPaid, f.reload(t).FinancialStatus)
	assert.Equal(t, 1, f.rec.count())

	var tx model.PaymentTransaction
	require.NoError(t, f.db.Where("reference = ?", out.Reference).First(&tx).Error)
	assert.Equal(t, model.PaymentApproved, tx.Status)
	assert.True(t, tx.Amount.Equal(dbtest.D("49.90")), "server amount is charged, not the client's")
	assert.NotNil(t, tx.SettledAt)

	_, err = f.charge("tok_4242")
	assert.ErrorIs(t, err, ErrOrderNotPayable)
	assert.Equal(t, 1, f.rec.count())
}

func TestChargeDeclined(t *testing.T) {
	f := setup(t, "20")

	_, err := f.charge(SandboxTokenDecline)
	var declined *DeclinedError
	require.True(t, errors.As(err, &declined))
	assert.Equal(t, SandboxDeclineCode, declined.Code)
	assert.Equal(t, model.FinancialFailed, f.reload(t).FinancialStatus)
	assert.Zero(t, f.rec.count())

	// a failed order can be retried
	out, err := f.charge("tok_1111")
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestChargeBelowMinimumNeverCallsProvider(t *testing.T) {
	f := setup(t, "0.50")
	called := false
	f.svc.WithFactory(func(cfg model.PaymentProviderConfig) (Provider, error) {
		return &spyProvider{Sandbox: NewSandbox(SandboxName, dbtest.D("1")), called: &called}, nil
	})

	_, err := f.charge("tok_4242")
	assert.ErrorIs(t, err, ErrAmountTooLow)
	assert.False(t, called)

	var count int64
	require.NoError(t, f.db.Model(&model.PaymentTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

type spyProvider struct {
	*Sandbox
	called *bool
}

func (p *spyProvider) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	*p.called = true
	return p.Sandbox.Charge(ctx, req)
}

type timeoutProvider struct {
	*Sandbox
}

func (p *timeoutProvider) Charge(ctx context.Context, _ ChargeRequest) (*ChargeResult, error) {
	return nil, context.DeadlineExceeded
}

func TestChargeTimeoutLeavesOrderPending(t *testing.T) {
	f := setup(t, "20")
	f.svc.WithFactory(func(model.PaymentProviderConfig) (Provider, error) {
		return &timeoutProvider{NewSandbox(SandboxName, dbtest.D("1"))}, nil
	})

	_, err := f.charge("tok_4242")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, model.FinancialPending, f.reload(t).FinancialStatus)

	var tx model.PaymentTransaction
	require.NoError(t, f.db.First(&tx).Error)
	assert.Equal(t, model.PaymentError, tx.Status)
	assert.Equal(t, "timeout", tx.ErrorCode)
}

func TestThreeDSecureCallbackIsIdempotent(t *testing.T) {
	f := setup(t, "30")

	out, err := f.charge(SandboxToken3DS)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.Requires3DS)
	assert.Contains(t, out.RedirectURL, "/api/v1/payments/callback/sandbox/")
	assert.Equal(t, model.FinancialPending, f.reload(t).FinancialStatus)

	redirect, err := url.Parse(out.RedirectURL)
	require.NoError(t, err)
	req := CallbackRequest{Query: redirect.Query()}

	first, err := f.svc.HandleCallback(context.Background(), SandboxName, f.store.ID, req)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, model.PaymentApproved, first.Status)

	second, err := f.svc.HandleCallback(context.Background(), SandboxName, f.store.ID, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	o := f.reload(t)
	assert.Equal(t, model.FinancialPaid, o.FinancialStatus)
	assert.Equal(t, 1, f.rec.count())

	// a late decline for a settled attempt changes nothing
	late := CallbackRequest{Query: url.Values{"reference": {out.Reference}, "status": {model.PaymentDeclined}}}
	third, err := f.svc.HandleCallback(context.Background(), SandboxName, f.store.ID, late)
	require.NoError(t, err)
	assert.True(t, third.Duplicate)
	assert.Equal(t, model.PaymentApproved, third.Status)
	assert.Equal(t, model.FinancialPaid, f.reload(t).FinancialStatus)
}

func TestCallbackRejections(t *testing.T) {
	f := setup(t, "30")
	ctx := context.Background()

	_, err := f.svc.HandleCallback(ctx, VNPayName, f.store.ID, CallbackRequest{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = f.svc.HandleCallback(ctx, SandboxName, f.store.ID, CallbackRequest{Query: url.Values{"status": {"approved"}}})
	assert.ErrorIs(t, err, ErrInvalidCallback)

	_, err = f.svc.HandleCallback(ctx, SandboxName, f.store.ID, CallbackRequest{Query: url.Values{"reference": {"PAY-missing"}, "status": {"approved"}}})
	assert.ErrorIs(t, err, ErrUnknownTransaction)

	_, err = f.svc.HandleCallback(ctx, SandboxName, 999, CallbackRequest{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestChargeUnknownStoreAndOrder(t *testing.T) {
	f := setup(t, "30")

	_, err := f.svc.Charge(context.Background(), model.ChargePaymentInput{StoreSlug: "nope", Token: "tok", OrderID: f.order.ID})
	assert.ErrorIs(t, err, order.ErrStoreNotFound)

	_, err = f.svc.Charge(context.Background(), model.ChargePaymentInput{StoreSlug: f.store.Slug, Token: "tok", OrderID: 999})
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(model.PaymentProviderConfig{Provider: VNPayName, Sandbox: true}, "https://shop.test")
	require.NoError(t, err)
	assert.IsType(t, &Sandbox{}, p)
	assert.Equal(t, VNPayName, p.Name())
	assert.True(t, p.MinimumAmount().Equal(dbtest.D("5000")))

	p, err = NewProvider(model.PaymentProviderConfig{Provider: CardGateName}, "")
	require.NoError(t, err)
	assert.IsType(t, &CardGate{}, p)

	_, err = NewProvider(model.PaymentProviderConfig{Provider: "paypal"}, "")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
