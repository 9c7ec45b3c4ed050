package model

import "time"

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const CurrencyTWD = "TWD"

type Payment struct {
	DTO
	OrderID            string     `gorm:"size:36;not null;index" json:"orderId"`
	Status             string     `gorm:"size:16;not null;default:pending" json:"status"`
	Amount             int64      `gorm:"not null" json:"amount"`
	Currency           string     `gorm:"size:3;not null;default:TWD" json:"currency"`
	MerchantTradeNo    string     `gorm:"size:20;not null;uniqueIndex" json:"merchantTradeNo"`
	GatewayTradeNo     string     `gorm:"size:20" json:"gatewayTradeNo"`
	RawCallbackPayload string     `gorm:"type:text" json:"-"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	RefundedAt         *time.Time `json:"refundedAt,omitempty"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

type PaymentResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	MerchantTradeNo string     `json:"merchantTradeNo"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}
