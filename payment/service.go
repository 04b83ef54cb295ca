package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"storefront/dispatch"
	"storefront/model"
	"storefront/order"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Notifier interface {
	Dispatch(ev dispatch.OrderPaidEvent)
}

type Factory func(cfg model.PaymentProviderConfig) (Provider, error)

type Service struct {
	db       *gorm.DB
	orders   *order.Repository
	notifier Notifier
	factory  Factory
	appURL   string
	timeout  time.Duration
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier, appURL string) *Service {
	s := &Service{
		db:       db,
		orders:   order.NewRepository(db),
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
		timeout:  30 * time.Second,
		now:      time.Now,
	}
	s.factory = func(cfg model.PaymentProviderConfig) (Provider, error) {
		return NewProvider(cfg, s.appURL)
	}
	return s
}

// WithFactory replaces how providers are built from store configuration.
func (s *Service) WithFactory(f Factory) *Service {
	s.factory = f
	return s
}

type ChargeOutcome struct {
	Success       bool
	TransactionID string
	Reference     string
	Requires3DS   bool
	RedirectURL   string
	Status        string
}

type CallbackOutcome struct {
	OrderID    uint
	PublicCode string
	Status     string
	Duplicate  bool
}

func (s *Service) CallbackURL(provider string, storeID uint) string {
	return fmt.Sprintf("%s/api/v1/payments/callback/%s/%d", s.appURL, provider, storeID)
}

func (s *Service) providerConfig(ctx context.Context, storeID uint) (*model.PaymentProviderConfig, error) {
	var cfg model.PaymentProviderConfig
	if err := s.db.WithContext(ctx).Where("store_id = ? AND active = ?", storeID, true).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotConfigured
		}
		return nil, err
	}
	return &cfg, nil
}

// ResultURL is where buyers land after an off-site payment step.
func (s *Service) ResultURL(publicCode, status string) string {
	if publicCode == "" {
		return s.appURL + "/checkout?payment=" + url.QueryEscape(status)
	}
	return fmt.Sprintf("%s/orders/%s?payment=%s", s.appURL, url.PathEscape(publicCode), url.QueryEscape(status))
}

// load fetches the provider config and the order concurrently.
func (s *Service) load(ctx context.Context, slug string, orderID uint) (*model.Store, Provider, *model.Order, error) {
	store, err := s.orders.StoreBySlug(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		cfg *model.PaymentProviderConfig
		o   *model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.providerConfig(gctx, store.ID)
		return err
	})
	g.Go(func() error {
		var err error
		o, err = s.orders.GetByID(gctx, store.ID, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	provider, err := s.factory(*cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, provider, o, nil
}

func payable(o *model.Order) bool {
	return o.Status == model.OrderOpen &&
		(o.FinancialStatus == model.FinancialPending || o.FinancialStatus == model.FinancialFailed)
}

func (s *Service) Tokenize(ctx context.Context, in model.TokenizeInput) (string, error) {
	_, provider, o, err := s.load(ctx, in.StoreSlug, in.OrderID)
	if err != nil {
		return "", err
	}
	if !payable(o) {
		return "", ErrOrderNotPayable
	}
	if o.Total.LessThan(provider.MinimumAmount()) {
		return "", ErrAmountTooLow
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return provider.Tokenize(ctx, CardDetails{
		Number:   in.Number,
		ExpMonth: in.ExpMonth,
		ExpYear:  in.ExpYear,
		CVV:      in.CVV,
		Holder:   in.Holder,
		HolderID: in.HolderID,
	})
}

// Charge charges the order's server-side total. The client amount is only
// compared and logged.
func (s *Service) Charge(ctx context.Context, in model.ChargePaymentInput) (*ChargeOutcome, error) {
	store, provider, o, err := s.load(ctx, in.StoreSlug, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !payable(o) {
		return nil, ErrOrderNotPayable
	}
	amount := o.Total
	if !in.Amount.IsZero() && !in.Amount.Equal(amount) {
		log.Printf("[PAYMENT] amount anomaly store=%d order=%d client=%s server=%s", store.ID, o.ID, in.Amount, amount)
	}
	if amount.LessThan(provider.MinimumAmount()) {
		return nil, ErrAmountTooLow
	}

	tx := &model.PaymentTransaction{
		StoreID:   store.ID,
		OrderID:   o.ID,
		Provider:  provider.Name(),
		Reference: "PAY-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		Amount:    amount,
		Currency:  o.Currency,
		Status:    model.PaymentInitiated,
		CardLast4: in.CardLast4,
		CardBrand: in.CardBrand,
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, fmt.Errorf("record payment attempt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := provider.Charge(callCtx, ChargeRequest{
		Reference:     tx.Reference,
		Token:         in.Token,
		Amount:        amount,
		Currency:      o.Currency,
		OrderNumber:   o.OrderNumber,
		PublicCode:    o.PublicCode,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		CallbackURL:   s.CallbackURL(provider.Name(), store.ID),
		ReturnURL:     in.ReturnURL,
		ClientIP:      in.ClientIP,
		Locale:        firstNonEmpty(in.Locale, o.Locale),
	})
	if err != nil {
		// No retry: the order stays pending for reconciliation.
		code := "provider_error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			code = "timeout"
		}
		s.finish(ctx, tx, &ChargeResult{Status: model.PaymentError, ErrorCode: code, Raw: err.Error()})
		log.Printf("[PAYMENT] charge failed store=%d order=%d ref=%s: %v", store.ID, o.ID, tx.Reference, err)
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.finish(ctx, tx, res)
	out := &ChargeOutcome{Reference: tx.Reference, TransactionID: firstNonEmpty(res.ProviderTransactionID, tx.Reference), Status: res.Status}

	switch res.Status {
	case model.PaymentApproved:
		if err := s.settle(ctx, o, provider.Name()); err != nil {
			return nil, err
		}
		out.Success = true
		return out, nil
	case model.PaymentRequires3D:
		out.Requires3DS = true
		out.RedirectURL = res.RedirectURL
		return out, nil
	case model.PaymentDeclined:
		if err := order.MarkFailed(ctx, s.db, o.ID); err != nil {
			log.Printf("[PAYMENT] mark order %d failed: %v", o.ID, err)
		}
		return nil, &DeclinedError{Code: res.ErrorCode}
	default:
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, res.ErrorCode)
	}
}

// finish records the provider's answer on an attempt that is not yet terminal.
func (s *Service) finish(ctx context.Context, tx *model.PaymentTransaction, res *ChargeResult) {
	updates := map[string]any{
		"status":       res.Status,
		"error_code":   res.ErrorCode,
		"raw_response": res.Raw,
	}
	if res.ProviderTransactionID != "" {
		updates["provider_transaction_id"] = res.ProviderTransactionID
	}
	if res.Status == model.PaymentApproved || res.Status == model.PaymentDeclined {
		updates["settled_at"] = s.now()
	}
	if err := s.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("id = ? AND status NOT IN ?", tx.ID, []string{model.PaymentApproved, model.PaymentDeclined}).
		Updates(updates).Error; err != nil {
		log.Printf("[PAYMENT] record result of %s: %v", tx.Reference, err)
	}
	tx.Status = res.Status
}

// settle marks the order paid and dispatches only if this call changed it.
func (s *Service) settle(ctx context.Context, o *model.Order, source string) error {
	changed, err := order.MarkPaid(ctx, s.db, o.ID, s.now())
	if err != nil {
		return err
	}
	if changed && s.notifier != nil {
		s.notifier.Dispatch(dispatch.OrderPaidEvent{StoreID: o.StoreID, OrderID: o.ID, PublicCode: o.PublicCode, Source: source})
	}
	return nil
}

// HandleCallback settles an attempt from a provider notification. Replays of
// an already settled attempt change nothing and dispatch nothing.
func (s *Service) HandleCallback(ctx context.Context, providerName string, storeID uint, req CallbackRequest) (*CallbackOutcome, error) {
	cfg, err := s.providerConfig(ctx, storeID)
	if err != nil {
		return nil, err
	}
	provider, err := s.factory(*cfg)
	if err != nil {
		return nil, err
	}
	if provider.Name() != providerName {
		return nil, ErrProviderNotConfigured
	}

	cb, err := provider.ParseCallback(ctx, req)
	if err != nil {
		log.Printf("[PAYMENT] rejected %s callback for store %d: %v", providerName, storeID, err)
		return nil, err
	}

	var tx model.PaymentTransaction
	if err := s.db.WithContext(ctx).Where("store_id = ? AND reference = ?", storeID, cb.Reference).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}

	var (
		o       model.Order
		applied bool
		changed bool
	)
	err = s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		updates := map[string]any{
			"status":       cb.Status,
			"error_code":   cb.ErrorCode,
			"raw_response": cb.Raw,
			"settled_at":   s.now(),
		}
		if cb.ProviderTransactionID != "" {
			updates["provider_transaction_id"] = cb.ProviderTransactionID
		}
		res := db.Model(&model.PaymentTransaction{}).
			Where("id = ? AND status NOT IN ?", tx.ID, []string{model.PaymentApproved, model.PaymentDeclined}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if err := db.First(&o, tx.OrderID).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		switch cb.Status {
		case model.PaymentApproved:
			changed, err = order.MarkPaid(ctx, db, o.ID, s.now())
			return err
		case model.PaymentDeclined:
			return order.MarkFailed(ctx, db, o.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle callback %s: %w", cb.Reference, err)
	}

	out := &CallbackOutcome{OrderID: o.ID, PublicCode: o.PublicCode, Status: cb.Status, Duplicate: !applied}
	if !applied {
		out.Status = tx.Status
	}
	if changed {
		log.Printf("[PAYMENT] order %d paid via %s callback (%s)", o.ID, providerName, cb.Reference)
		if s.notifier != nil {
			s.notifier.Dispatch(dispatch.OrderPaidEvent{StoreID: o.StoreID, OrderID: o.ID, PublicCode: o.PublicCode, Source: providerName})
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
