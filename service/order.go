package service

import (
	"context"
	"errors"

	"ticket_engine/constants"
	"ticket_engine/model"
	"ticket_engine/utils"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// OrderService answers buyer queries about their own orders.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string, caller model.TokenClaim) (*model.OrderResponse, error) {
	order, err := s.ownedOrder(ctx, orderID, caller)
	if err != nil {
		return nil, err
	}

	var resp model.OrderResponse
	if err := copier.Copy(&resp, order); err != nil {
		return nil, utils.SystemError("copy order", err)
	}
	resp.Purchaser = order.PurchaserContact

	var payment model.Payment
	err = s.db.WithContext(ctx).Where("order_id = ?", order.ID).Order("created_at DESC").First(&payment).Error
	switch {
	case err == nil:
		resp.Payment = &model.PaymentResponse{}
		if err := copier.Copy(resp.Payment, &payment); err != nil {
			return nil, utils.SystemError("copy payment", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, utils.SystemError("load payment", err)
	}

	var ticket model.Ticket
	err = s.db.WithContext(ctx).Where("order_id = ?", order.ID).First(&ticket).Error
	switch {
	case err == nil:
		resp.Ticket = &model.TicketResponse{}
		if err := copier.Copy(resp.Ticket, &ticket); err != nil {
			return nil, utils.SystemError("copy ticket", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, utils.SystemError("load ticket", err)
	}
	return &resp, nil
}

// TicketCredential returns the QR credential of the caller's ticket.
func (s *OrderService) TicketCredential(ctx context.Context, orderID string, caller model.TokenClaim) (string, error) {
	order, err := s.ownedOrder(ctx, orderID, caller)
	if err != nil {
		return "", err
	}
	var ticket model.Ticket
	if err := s.db.WithContext(ctx).
		Where("order_id = ? AND buyer_id = ?", order.ID, order.BuyerID).
		First(&ticket).Error; err != nil {
		return "", notFoundOr(err, constants.TICKET_NOT_FOUND, "ticket not issued yet")
	}
	return ticket.QRCredential, nil
}

func (s *OrderService) ownedOrder(ctx context.Context, orderID string, caller model.TokenClaim) (*model.Order, error) {
	if err := requireUUID(orderID, "orderId"); err != nil {
		return nil, err
	}
	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, notFoundOr(err, constants.ORDER_NOT_FOUND, "order not found")
	}
	if order.BuyerID != caller.UserID {
		return nil, utils.ForbiddenError(constants.FORBIDDEN, "order belongs to another buyer")
	}
	return &order, nil
}
