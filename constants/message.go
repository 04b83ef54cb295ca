package constants

const (
	ERROR_INPUT                = "ERROR_INPUT"
	ERROR_INTERNAL_ERROR       = "ERROR_INTERNAL_ERROR"
	ERROR_PARSE_DATA_TO_LOCALS = "ERROR_PARSE_DATA_TO_LOCALS"
	DATA_INPUT_IS_NOT_NUMBER   = "DATA_INPUT_IS_NOT_NUMBER"
	CAN_NOT_HASH_PASSWORD      = "CAN_NOT_HASH_PASSWORD"

	STORE_NOT_FOUND         = "STORE_NOT_FOUND"
	CART_EMPTY              = "CART_EMPTY"
	ITEM_NOT_FOUND          = "ITEM_NOT_FOUND"
	INSUFFICIENT_INVENTORY  = "INSUFFICIENT_INVENTORY"
	ORDER_CREATE_FAILED     = "ORDER_CREATE_FAILED"
	ORDER_NOT_FOUND         = "ORDER_NOT_FOUND"
	ORDER_NOT_PAYABLE       = "ORDER_NOT_PAYABLE"
	AMOUNT_TOO_LOW          = "AMOUNT_TOO_LOW"
	PROVIDER_NOT_CONFIGURED = "PROVIDER_NOT_CONFIGURED"
	PAYMENT_FAILED          = "PAYMENT_FAILED"
	PAYMENT_DECLINED        = "PAYMENT_DECLINED"
	CALLBACK_INVALID        = "CALLBACK_INVALID"
	TOO_MANY_REQUESTS       = "TOO_MANY_REQUESTS"
	INVALID_CREDENTIALS     = "INVALID_CREDENTIALS"
)

const DefaultLocale = "en"

var messages = map[string]map[string]string{
	"en": {
		ERROR_INPUT:                "Invalid input",
		ERROR_INTERNAL_ERROR:       "Something went wrong, please try again",
		ERROR_PARSE_DATA_TO_LOCALS: "Could not read request data",
		DATA_INPUT_IS_NOT_NUMBER:   "Value must be a number",
		CAN_NOT_HASH_PASSWORD:      "Could not set password",
		STORE_NOT_FOUND:            "Store not found",
		CART_EMPTY:                 "Your cart is empty",
		ITEM_NOT_FOUND:             "An item in your cart is no longer available",
		INSUFFICIENT_INVENTORY:     "Not enough stock for %s",
		ORDER_CREATE_FAILED:        "We could not create your order, please try again",
		ORDER_NOT_FOUND:            "Order not found",
		ORDER_NOT_PAYABLE:          "This order can no longer be paid",
		AMOUNT_TOO_LOW:             "The amount is below the minimum that can be charged",
		PROVIDER_NOT_CONFIGURED:    "Online payment is not available for this store",
		PAYMENT_FAILED:             "Payment could not be completed, please try again later",
		PAYMENT_DECLINED:           "Your payment was declined",
		CALLBACK_INVALID:           "Invalid payment notification",
		TOO_MANY_REQUESTS:          "Too many attempts, please wait a moment",
		INVALID_CREDENTIALS:        "Email or password is incorrect",
	},
	"vi": {
		ERROR_INPUT:                "Dữ liệu không hợp lệ",
		ERROR_INTERNAL_ERROR:       "Đã xảy ra lỗi, vui lòng thử lại",
		ERROR_PARSE_DATA_TO_LOCALS: "Không thể đọc dữ liệu yêu cầu",
		DATA_INPUT_IS_NOT_NUMBER:   "Giá trị phải là số",
		CAN_NOT_HASH_PASSWORD:      "Không thể đặt mật khẩu",
		STORE_NOT_FOUND:            "Cửa hàng không tồn tại",
		CART_EMPTY:                 "Giỏ hàng trống",
		ITEM_NOT_FOUND:             "Một sản phẩm trong giỏ hàng không còn tồn tại",
		INSUFFICIENT_INVENTORY:     "Không đủ hàng cho %s",
		ORDER_CREATE_FAILED:        "Không thể tạo đơn hàng, vui lòng thử lại",
		ORDER_NOT_FOUND:            "Không tìm thấy đơn hàng",
		ORDER_NOT_PAYABLE:          "Đơn hàng không thể thanh toán",
		AMOUNT_TOO_LOW:             "Số tiền thấp hơn mức tối thiểu có thể thanh toán",
		PROVIDER_NOT_CONFIGURED:    "Cửa hàng chưa hỗ trợ thanh toán trực tuyến",
		PAYMENT_FAILED:             "Thanh toán không thành công, vui lòng thử lại sau",
		PAYMENT_DECLINED:           "Giao dịch bị từ chối",
		CALLBACK_INVALID:           "Thông báo thanh toán không hợp lệ",
		TOO_MANY_REQUESTS:          "Quá nhiều yêu cầu, vui lòng đợi",
		INVALID_CREDENTIALS:        "Email hoặc mật khẩu không đúng",
	},
}

// Message returns the localized text for key, falling back to English and then to the key itself.
func Message(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if m, ok := table[key]; ok {
			return m
		}
	}
	if m, ok := messages[DefaultLocale][key]; ok {
		return m
	}
	return key
}
