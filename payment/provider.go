// Package payment charges orders through interchangeable card processors and
// settles their asynchronous callbacks.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"storefront/model"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountTooLow           = errors.New("amount below provider minimum")
	ErrOrderNotPayable        = errors.New("order is not payable")
	ErrProviderNotConfigured  = errors.New("payment provider not configured")
	ErrUnknownProvider        = errors.New("unknown payment provider")
	ErrProviderUnavailable    = errors.New("payment provider unavailable")
	ErrInvalidCallback        = errors.New("invalid payment callback")
	ErrUnknownTransaction     = errors.New("unknown payment transaction")
	ErrTokenizationNotOffered = errors.New("provider does not tokenize cards")
)

// Providers lists the names a store may be configured with.
var Providers = []string{SandboxName, VNPayName, CardGateName}

type DeclinedError struct {
	Code string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined (code %s)", e.Code)
}

type CardDetails struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVV      string
	Holder   string
	HolderID string
}

type ChargeRequest struct {
	Reference     string
	Token         string
	Amount        decimal.Decimal
	Currency      string
	OrderNumber   int64
	PublicCode    string
	CustomerEmail string
	CustomerName  string
	CallbackURL   string
	ReturnURL     string
	ClientIP      string
	Locale        string
}

// ChargeResult.Status is one of the model.Payment* values other than initiated.
type ChargeResult struct {
	Status                string
	ProviderTransactionID string
	RedirectURL           string
	ErrorCode             string
	Raw                   string
}

type CallbackRequest struct {
	Query     url.Values
	Body      []byte
	Signature string
}

// Callback is a provider's final word on one charge attempt.
type Callback struct {
	Reference             string
	ProviderTransactionID string
	Status                string
	ErrorCode             string
	Raw                   string
}

type Provider interface {
	Name() string
	MinimumAmount() decimal.Decimal
	Tokenize(ctx context.Context, card CardDetails) (string, error)
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	ParseCallback(ctx context.Context, req CallbackRequest) (*Callback, error)
}

// NewProvider builds the provider a store is configured for. Sandbox configs
// keep the provider's name and minimum but never leave the process.
func NewProvider(cfg model.PaymentProviderConfig, appURL string) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case SandboxName:
		return NewSandbox(SandboxName, decimal.NewFromInt(1)), nil
	case VNPayName:
		p = NewVNPay(cfg, appURL)
	case CardGateName:
		p = NewCardGate(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if cfg.Sandbox {
		return NewSandbox(p.Name(), p.MinimumAmount()), nil
	}
	return p, nil
}
