package model

import "time"

const (
	TicketPurchased = "purchased"
	TicketUsed      = "used"
	TicketRefunded  = "refunded"
)

type Ticket struct {
	DTO
	OrderID          string           `gorm:"size:36;not null;uniqueIndex" json:"orderId"`
	TicketTypeID     string           `gorm:"size:36;not null;index" json:"ticketTypeId"`
	BuyerID          string           `gorm:"size:36;not null;index" json:"buyerId"`
	Status           string           `gorm:"size:16;not null;default:purchased" json:"status"`
	QRCredential     string           `gorm:"size:128;not null" json:"-"`
	SessionStartTime time.Time        `gorm:"not null" json:"sessionStartTime"`
	PurchaserContact PurchaserContact `gorm:"embedded;embeddedPrefix:purchaser_" json:"purchaser"`
	UsedAt           *time.Time       `json:"usedAt,omitempty"`
	VerifiedBy       string           `gorm:"size:36" json:"verifiedBy,omitempty"`
	RefundedAt       *time.Time       `json:"refundedAt,omitempty"`

	Order      Order      `gorm:"foreignKey:OrderID" json:"-"`
	TicketType TicketType `gorm:"foreignKey:TicketTypeID" json:"-"`
}

type TicketResponse struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	SessionStartTime time.Time  `json:"sessionStartTime"`
	UsedAt           *time.Time `json:"usedAt,omitempty"`
}

type VerifyTicketInput struct {
	Credential string `json:"credential" validate:"required,max=256"`
}

// VerificationReceipt is returned to the verifier after a successful scan.
type VerificationReceipt struct {
	TicketID       string    `json:"ticketId"`
	OrderNumber    string    `json:"orderNumber"`
	PurchaserName  string    `json:"purchaserName"`
	PurchaserEmail string    `json:"purchaserEmail"`
	TicketTypeName string    `json:"ticketTypeName"`
	ConcertTitle   string    `json:"concertTitle"`
	SessionTitle   string    `json:"sessionTitle"`
	Venue          string    `json:"venue"`
	ConcertDate    time.Time `json:"concertDate"`
	VerifiedAt     time.Time `json:"verifiedAt"`
	VerifierID     string    `json:"verifierId"`
	VerifierEmail  string    `json:"verifierEmail"`
}

type RefundResponse struct {
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	RefundedAt time.Time `json:"refundedAt"`
}
