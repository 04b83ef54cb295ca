package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"storefront/model"

	"github.com/shopspring/decimal"
)

const VNPayName = "vnpay"

// VNPay is a redirect gateway: every charge sends the buyer to VNPay and the
// result arrives on the return URL or IPN, signed with HMAC-SHA512.
type VNPay struct {
	Config model.VNPayConfig
	now    func() time.Time
}

func NewVNPay(cfg model.PaymentProviderConfig, appURL string) *VNPay {
	return &VNPay{
		Config: model.VNPayConfig{
			TmnCode:    cfg.TerminalID,
			HashSecret: cfg.Secret,
			BaseURL:    cfg.BaseURL,
			ReturnURL:  fmt.Sprintf("%s/payments/vnpay/return/%d", appURL, cfg.StoreID),
		},
		now: time.Now,
	}
}

func (v *VNPay) Name() string { return VNPayName }

func (v *VNPay) MinimumAmount() decimal.Decimal { return decimal.NewFromInt(5000) }

// Tokenize is not offered; card entry happens on VNPay's page.
func (v *VNPay) Tokenize(context.Context, CardDetails) (string, error) {
	return "", ErrTokenizationNotOffered
}

func (v *VNPay) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	locale := "vn"
	if req.Locale == "en" {
		locale = "en"
	}
	redirect, err := v.BuildPaymentUrl(model.PaymentRequest{
		Amount:    req.Amount.IntPart(),
		OrderInfo: fmt.Sprintf("Order %d (%s)", req.OrderNumber, req.PublicCode),
		TxnRef:    req.Reference,
		IPAddr:    req.ClientIP,
		Locale:    locale,
	})
	if err != nil {
		return nil, err
	}
	return &ChargeResult{Status: model.PaymentRequires3D, RedirectURL: redirect}, nil
}

func (v *VNPay) BuildPaymentUrl(req model.PaymentRequest) (string, error) {
	now := v.now()
	params := url.Values{}
	params.Add("vnp_Version", "2.1.0")
	params.Add("vnp_Command", "pay")
	params.Add("vnp_TmnCode", v.Config.TmnCode)
	params.Add("vnp_Amount", strconv.FormatInt(req.Amount*100, 10)) // VND * 100
	params.Add("vnp_CreateDate", now.Format("20060102150405"))
	params.Add("vnp_CurrCode", "VND")
	params.Add("vnp_IpAddr", req.IPAddr)
	params.Add("vnp_Locale", req.Locale)
	params.Add("vnp_OrderInfo", req.OrderInfo)
	params.Add("vnp_OrderType", "other")
	params.Add("vnp_ReturnUrl", v.Config.ReturnURL)
	params.Add("vnp_TxnRef", req.TxnRef)
	params.Add("vnp_ExpireDate", now.Add(15*time.Minute).Format("20060102150405"))

	query := params.Encode()
	return v.Config.BaseURL + "?" + query + "&vnp_SecureHash=" + v.generateHash(query), nil
}

// VerifyReturnUrl checks the signature of a return or IPN query.
func (v *VNPay) VerifyReturnUrl(query url.Values) model.PaymentResponse {
	query = cloneValues(query)
	secureHash := query.Get("vnp_SecureHash")
	query.Del("vnp_SecureHash")
	query.Del("vnp_SecureHashType")

	if !hmac.Equal([]byte(secureHash), []byte(v.generateHash(query.Encode()))) {
		return model.PaymentResponse{IsSuccess: false, Message: "Invalid hash"}
	}

	amount, _ := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
	res := model.PaymentResponse{
		TxnRef:        query.Get("vnp_TxnRef"),
		TransactionNo: query.Get("vnp_TransactionNo"),
		Amount:        amount / 100,
		ResponseCode:  query.Get("vnp_ResponseCode"),
	}
	res.IsSuccess = res.ResponseCode == "00"
	if !res.IsSuccess {
		res.Message = "Payment failed"
	}
	return res
}

func (v *VNPay) ParseCallback(_ context.Context, req CallbackRequest) (*Callback, error) {
	query := req.Query
	if len(query) == 0 && len(req.Body) > 0 {
		parsed, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return nil, ErrInvalidCallback
		}
		query = parsed
	}
	res := v.VerifyReturnUrl(query)
	if res.Message == "Invalid hash" || res.TxnRef == "" {
		return nil, ErrInvalidCallback
	}

	cb := &Callback{
		Reference:             res.TxnRef,
		ProviderTransactionID: res.TransactionNo,
		Status:                model.PaymentApproved,
		Raw:                   query.Encode(),
	}
	if !res.IsSuccess {
		cb.Status = model.PaymentDeclined
		cb.ErrorCode = res.ResponseCode
	}
	return cb, nil
}

func (v *VNPay) generateHash(data string) string {
	h := hmac.New(sha512.New, []byte(v.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
