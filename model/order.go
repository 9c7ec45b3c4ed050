package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	OrderHeld      = "held"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
	OrderRefunded  = "refunded"
)

type Order struct {
	DTO
	TicketTypeID     string           `gorm:"size:36;not null;index" json:"ticketTypeId"`
	BuyerID          string           `gorm:"size:36;not null;index" json:"buyerId"`
	Status           string           `gorm:"size:16;not null;index:idx_orders_status_lock" json:"status"`
	LockToken        string           `gorm:"size:36;not null" json:"-"`
	LockExpireTime   time.Time        `gorm:"not null;index:idx_orders_status_lock" json:"lockExpireTime"`
	OrderNumber      string           `gorm:"size:32;not null;index" json:"orderNumber"`
	PurchaserContact PurchaserContact `gorm:"embedded;embeddedPrefix:purchaser_" json:"purchaser"`

	TicketType TicketType `gorm:"foreignKey:TicketTypeID" json:"-"`
}

// BuildOrderNumber derives the human-readable order number from the
// creation time and the order id.
func BuildOrderNumber(createdAt time.Time, orderID string) string {
	compact := strings.ReplaceAll(orderID, "-", "")
	if len(compact) > 6 {
		compact = compact[len(compact)-6:]
	}
	return fmt.Sprintf("%s%s", createdAt.Format("20060102150405"), strings.ToUpper(compact))
}

type CreateOrderInput struct {
	TicketTypeID string           `json:"ticketTypeId" validate:"required,uuid"`
	Purchaser    PurchaserContact `json:"purchaser"`
}

type ReservationResponse struct {
	OrderID           string    `json:"orderId"`
	OrderNumber       string    `json:"orderNumber"`
	LockExpireTime    time.Time `json:"lockExpireTime"`
	RemainingQuantity int       `json:"remainingQuantity"`
}

type OrderResponse struct {
	ID             string           `json:"id"`
	OrderNumber    string           `json:"orderNumber"`
	TicketTypeID   string           `json:"ticketTypeId"`
	BuyerID        string           `json:"buyerId"`
	Status         string           `json:"status"`
	LockExpireTime time.Time        `json:"lockExpireTime"`
	Purchaser      PurchaserContact `json:"purchaser"`
	CreatedAt      time.Time        `json:"createdAt"`
	Payment        *PaymentResponse `json:"payment,omitempty"`
	Ticket         *TicketResponse  `json:"ticket,omitempty"`
}
