package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/model"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const CardGateName = "cardgate"

// CardGate is a JSON card processor: cards are tokenized through /tokens,
// charged through /charges, and 3-D Secure results are posted back signed
// with HMAC-SHA256 of the body.
type CardGate struct {
	baseURL string
	apiKey  string
	secret  string
	timeout time.Duration
}

func NewCardGate(cfg model.PaymentProviderConfig) *CardGate {
	return &CardGate{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		secret:  cfg.Secret,
		timeout: 20 * time.Second,
	}
}

func (g *CardGate) Name() string { return CardGateName }

func (g *CardGate) MinimumAmount() decimal.Decimal { return decimal.NewFromInt(1) }

type cardGateToken struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

type cardGateCharge struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
	DeclineCode string `json:"decline_code"`
	Error       string `json:"error"`
}

func (g *CardGate) post(ctx context.Context, path string, body any, out any) ([]byte, error) {
	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, context.DeadlineExceeded)
		}
	}

	agent := fiber.Post(g.baseURL + path)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+g.apiKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSON(body)
	agent.Timeout(timeout)

	code, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, errs[0])
	}
	if code >= fiber.StatusInternalServerError {
		return resp, fmt.Errorf("%w: status %d", ErrProviderUnavailable, code)
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return resp, fmt.Errorf("cardgate %s: decode response (status %d): %w", path, code, err)
	}
	return resp, nil
}

func (g *CardGate) Tokenize(ctx context.Context, card CardDetails) (string, error) {
	var out cardGateToken
	_, err := g.post(ctx, "/tokens", map[string]any{
		"number":    card.Number,
		"exp_month": card.ExpMonth,
		"exp_year":  card.ExpYear,
		"cvv":       card.CVV,
		"holder":    card.Holder,
		"holder_id": card.HolderID,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("cardgate tokenize: %s", out.Error)
	}
	return out.Token, nil
}

func (g *CardGate) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var out cardGateCharge
	raw, err := g.post(ctx, "/charges", map[string]any{
		"token":          req.Token,
		"amount":         req.Amount.StringFixed(2),
		"currency":       req.Currency,
		"reference":      req.Reference,
		"description":    fmt.Sprintf("Order %d", req.OrderNumber),
		"customer_email": req.CustomerEmail,
		"callback_url":   req.CallbackURL,
		"return_url":     req.ReturnURL,
	}, &out)
	if err != nil {
		return nil, err
	}

	res := &ChargeResult{ProviderTransactionID: out.ID, Raw: string(raw)}
	switch out.Status {
	case "approved", "succeeded":
		res.Status = model.PaymentApproved
	case "requires_action":
		res.Status = model.PaymentRequires3D
		res.RedirectURL = out.RedirectURL
	case "declined":
		res.Status = model.PaymentDeclined
		res.ErrorCode = out.DeclineCode
	default:
		res.Status = model.PaymentError
		res.ErrorCode = out.Error
	}
	return res, nil
}

func (g *CardGate) sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(g.secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (g *CardGate) ParseCallback(_ context.Context, req CallbackRequest) (*Callback, error) {
	if !hmac.Equal([]byte(req.Signature), []byte(g.sign(req.Body))) {
		return nil, ErrInvalidCallback
	}
	var in cardGateCharge
	if err := json.Unmarshal(req.Body, &in); err != nil || in.Reference == "" {
		return nil, ErrInvalidCallback
	}

	cb := &Callback{Reference: in.Reference, ProviderTransactionID: in.ID, Raw: string(req.Body)}
	switch in.Status {
	case "approved", "succeeded":
		cb.Status = model.PaymentApproved
	case "declined", "failed":
		cb.Status = model.PaymentDeclined
		cb.ErrorCode = in.DeclineCode
	default:
		return nil, ErrInvalidCallback
	}
	return cb, nil
}
