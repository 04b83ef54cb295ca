package constants

// Provider decline codes shared by the card processors we integrate with.
var declineMessages = map[string]map[string]string{
	"en": {
		"001": "The card is blocked",
		"002": "The card was reported stolen",
		"003": "Please contact your card issuer",
		"004": "The transaction was refused by the card issuer",
		"006": "The CVV or ID number is incorrect",
		"033": "The card is not valid",
		"036": "The card has expired",
		"039": "The card number is incorrect",
		"051": "Insufficient funds",
		"057": "The card is not permitted for this transaction",
		"061": "The card limit was exceeded",
		"065": "Too many attempts for this card",
		"091": "The card issuer is unavailable, please try again",
		"24":  "The transaction was cancelled by the buyer",
		"33":  "The card is not valid",
		"51":  "Insufficient funds",
		"99":  "The payment provider reported an unknown error",
	},
	"vi": {
		"001": "Thẻ đã bị khóa",
		"002": "Thẻ đã bị báo mất",
		"003": "Vui lòng liên hệ ngân hàng phát hành",
		"004": "Giao dịch bị ngân hàng từ chối",
		"006": "Mã CVV hoặc số giấy tờ không đúng",
		"033": "Thẻ không hợp lệ",
		"036": "Thẻ đã hết hạn",
		"039": "Số thẻ không đúng",
		"051": "Số dư không đủ",
		"057": "Thẻ không được phép thực hiện giao dịch này",
		"061": "Vượt quá hạn mức thẻ",
		"065": "Nhập sai quá số lần quy định",
		"091": "Ngân hàng phát hành không phản hồi, vui lòng thử lại",
		"24":  "Khách hàng đã hủy giao dịch",
		"33":  "Thẻ không hợp lệ",
		"51":  "Số dư không đủ",
		"99":  "Cổng thanh toán báo lỗi không xác định",
	},
}

var unknownDecline = map[string]string{
	"en": "Your payment was declined (code %s)",
	"vi": "Giao dịch bị từ chối (mã %s)",
}

// DeclineMessage maps a provider decline code to a buyer-facing message.
// The second return value is false when the code is not in the table; the
// message is then a format string expecting the code.
func DeclineMessage(locale, code string) (string, bool) {
	table, ok := declineMessages[locale]
	if !ok {
		locale = DefaultLocale
		table = declineMessages[DefaultLocale]
	}
	if m, ok := table[code]; ok {
		return m, true
	}
	return unknownDecline[locale], false
}
