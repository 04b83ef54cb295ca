package payment

import (
	"context"
	"strings"

	"storefront/model"

	"github.com/shopspring/decimal"
)

const (
	SandboxName = "sandbox"

	SandboxToken3DS     = "tok_3ds"
	SandboxTokenDecline = "tok_decline"
	SandboxDeclineCode  = "33"
)

// Sandbox answers deterministically from the token, so the whole order and
// dispatch flow can run without a processor.
type Sandbox struct {
	name    string
	minimum decimal.Decimal
}

func NewSandbox(name string, minimum decimal.Decimal) *Sandbox {
	return &Sandbox{name: name, minimum: minimum}
}

func (s *Sandbox) Name() string                   { return s.name }
func (s *Sandbox) MinimumAmount() decimal.Decimal { return s.minimum }

// Tokenize maps the usual test card numbers: ...3220 asks for 3-D Secure,
// ...0002 is declined, anything else is approved.
func (s *Sandbox) Tokenize(_ context.Context, card CardDetails) (string, error) {
	switch {
	case strings.HasSuffix(card.Number, "3220"):
		return SandboxToken3DS, nil
	case strings.HasSuffix(card.Number, "0002"):
		return SandboxTokenDecline, nil
	}
	last4 := card.Number
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return "tok_" + last4, nil
}

func (s *Sandbox) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	txnID := "sbx_" + req.Reference
	switch req.Token {
	case SandboxToken3DS:
		return &ChargeResult{
			Status:                model.PaymentRequires3D,
			ProviderTransactionID: txnID,
			RedirectURL:           req.CallbackURL + "?reference=" + req.Reference + "&status=" + model.PaymentApproved,
			Raw:                   `{"sandbox":"3ds"}`,
		}, nil
	case SandboxTokenDecline:
		return &ChargeResult{
			Status:                model.PaymentDeclined,
			ProviderTransactionID: txnID,
			ErrorCode:             SandboxDeclineCode,
			Raw:                   `{"sandbox":"declined"}`,
		}, nil
	}
	return &ChargeResult{
		Status:                model.PaymentApproved,
		ProviderTransactionID: txnID,
		Raw:                   `{"sandbox":"approved"}`,
	}, nil
}

// ParseCallback reads reference, status and code from the query string, as
// produced by the 3-D Secure redirect above.
func (s *Sandbox) ParseCallback(_ context.Context, req CallbackRequest) (*Callback, error) {
	ref := req.Query.Get("reference")
	status := req.Query.Get("status")
	if ref == "" || (status != model.PaymentApproved && status != model.PaymentDeclined) {
		return nil, ErrInvalidCallback
	}
	return &Callback{
		Reference:             ref,
		ProviderTransactionID: "sbx_" + ref,
		Status:                status,
		ErrorCode:             req.Query.Get("code"),
		Raw:                   req.Query.Encode(),
	}, nil
}
