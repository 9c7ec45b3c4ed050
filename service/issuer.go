package service

import (
	"errors"
	"fmt"

	"ticket_engine/helper"
	"ticket_engine/model"

	"gorm.io/gorm"
)

// TicketIssuer creates the single ticket of a paid order.
type TicketIssuer struct{}

func NewTicketIssuer() *TicketIssuer {
	return &TicketIssuer{}
}

// Issue must run inside the caller's transaction. It returns the existing
// ticket, with created=false, when the order already has one.
func (i *TicketIssuer) Issue(tx *gorm.DB, order *model.Order) (ticket *model.Ticket, created bool, err error) {
	var existing model.Ticket
	err = tx.Where("order_id = ?", order.ID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup ticket: %w", err)
	}

	var ticketType model.TicketType
	if err := tx.Preload("Session").First(&ticketType, "id = ?", order.TicketTypeID).Error; err != nil {
		return nil, false, fmt.Errorf("load ticket type %s: %w", order.TicketTypeID, err)
	}

	ticket = &model.Ticket{
		OrderID:          order.ID,
		TicketTypeID:     order.TicketTypeID,
		BuyerID:          order.BuyerID,
		Status:           model.TicketPurchased,
		QRCredential:     helper.BuildTicketCredential(order.BuyerID, order.ID),
		SessionStartTime: ticketType.Session.StartTime,
		PurchaserContact: order.PurchaserContact,
	}
	if err := tx.Create(ticket).Error; err != nil {
		return nil, false, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, true, nil
}
