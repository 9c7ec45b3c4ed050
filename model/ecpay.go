package model

import "time"

type ECPayConfig struct {
	MerchantID          string
	HashKey             string
	HashIV              string
	CheckoutURL         string
	ActionURL           string
	CallbackURL         string
	ReturnURL           string
	ClientBackURL       string
	ChoosePayment       string
	IgnorePayment       string
	RefundTimeout       time.Duration
	AcceptSimulatedPaid bool
}

// ECPayCallback is the form posted by the gateway to the callback URL.
type ECPayCallback struct {
	MerchantID      string `validate:"required"`
	MerchantTradeNo string `validate:"required,max=20"`
	RtnCode         string `validate:"required,numeric"`
	RtnMsg          string
	TradeNo         string `validate:"omitempty,max=20"`
	TradeAmt        int64  `validate:"gte=0"`
	PaymentDate     string
	PaymentType     string
	SimulatePaid    string
	CheckMacValue   string `validate:"required"`
}

type CheckoutRequest struct {
	OrderID         string
	MerchantTradeNo string
	TradeDate       time.Time
	TotalAmount     int64
	TradeDesc       string
	ItemName        string
}

type CheckoutResponse struct {
	PaymentID       string            `json:"paymentId"`
	MerchantTradeNo string            `json:"merchantTradeNo"`
	ActionURL       string            `json:"actionUrl"`
	Fields          map[string]string `json:"fields"`
	HTML            string            `json:"html"`
}

type RefundRequest struct {
	MerchantTradeNo string
	TradeNo         string
	TotalAmount     int64
}

// RefundResult is the parsed DoAction response.
type RefundResult struct {
	RtnCode string
	RtnMsg  string
	Raw     map[string]string
}

func (r *RefundResult) Success() bool {
	return r != nil && r.RtnCode == "1"
}
