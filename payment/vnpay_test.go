package payment

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront/database/dbtest"
	"storefront/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVNPay() *VNPay {
	v := NewVNPay(model.PaymentProviderConfig{
		StoreID:    7,
		Provider:   VNPayName,
		TerminalID: "TMN01",
		Secret:     "s3cr3t",
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	}, "https://shop.test")
	v.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return v
}

// providerReply turns a payment URL into the query VNPay sends back.
func providerReply(t *testing.T, v *VNPay, paymentURL, responseCode string) url.Values {
	t.Helper()
	u, err := url.Parse(paymentURL)
	require.NoError(t, err)
	q := u.Query()
	q.Del("vnp_SecureHash")
	q.Set("vnp_ResponseCode", responseCode)
	q.Set("vnp_TransactionNo", "14000001")
	q.Set("vnp_SecureHash", v.generateHash(q.Encode()))
	return q
}

func TestVNPayChargeBuildsSignedRedirect(t *testing.T) {
	v := testVNPay()
	res, err := v.Charge(context.Background(), ChargeRequest{
		Reference:   "PAY-1",
		Amount:      dbtest.D("150000"),
		OrderNumber: 1001,
		PublicCode:  "ORD-ABC",
		ClientIP:    "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRequires3D, res.Status)
	assert.True(t, strings.HasPrefix(res.RedirectURL, "https://sandbox.vnpayment.vn/"))

	u, err := url.Parse(res.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "15000000", u.Query().Get("vnp_Amount"))
	assert.Equal(t, "https://shop.test/payments/vnpay/return/7", u.Query().Get("vnp_ReturnUrl"))
	assert.Equal(t, "PAY-1", u.Query().Get("vnp_TxnRef"))
}

func TestVNPayParseCallback(t *testing.T) {
	v := testVNPay()
	res, err := v.Charge(context.Background(), ChargeRequest{Reference: "PAY-2", Amount: dbtest.D("50000")})
	require.NoError(t, err)

	ok, err := v.ParseCallback(context.Background(), CallbackRequest{Query: providerReply(t, v, res.RedirectURL, "00")})
	require.NoError(t, err)
	assert.Equal(t, "PAY-2", ok.Reference)
	assert.Equal(t, "14000001", ok.ProviderTransactionID)
	assert.Equal(t, model.PaymentApproved, ok.Status)

	cancelled, err := v.ParseCallback(context.Background(), CallbackRequest{Query: providerReply(t, v, res.RedirectURL, "24")})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentDeclined, cancelled.Status)
	assert.Equal(t, "24", cancelled.ErrorCode)

	tampered := providerReply(t, v, res.RedirectURL, "00")
	tampered.Set("vnp_Amount", "100")
	_, err = v.ParseCallback(context.Background(), CallbackRequest{Query: tampered})
	assert.ErrorIs(t, err, ErrInvalidCallback)

	// IPN may arrive as a form body
	body := providerReply(t, v, res.RedirectURL, "00").Encode()
	fromBody, err := v.ParseCallback(context.Background(), CallbackRequest{Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, "PAY-2", fromBody.Reference)
}

func TestVNPayDoesNotTokenize(t *testing.T) {
	_, err := testVNPay().Tokenize(context.Background(), CardDetails{Number: "4111111111111111"})
	assert.ErrorIs(t, err, ErrTokenizationNotOffered)
}
