package model

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
}

type PaymentRequest struct {
	Amount    int64  `json:"amount"`
	OrderInfo string `json:"orderInfo"`
	TxnRef    string `json:"txnRef"`
	IPAddr    string `json:"ipAddr"`
	Locale    string `json:"locale"`
}

type PaymentResponse struct {
	IsSuccess     bool   `json:"isSuccess"`
	TxnRef        string `json:"txnRef"`
	TransactionNo string `json:"transactionNo"`
	Amount        int64  `json:"amount"`
	ResponseCode  string `json:"responseCode"`
	Message       string `json:"message"`
}
