package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"ticket_engine/constants"
	"ticket_engine/ecpay"
	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const merchantTradeNoAttempts = 3

// CheckoutGateway is the part of the gateway client used to start a payment.
type CheckoutGateway interface {
	CheckoutFields(req model.CheckoutRequest) (map[string]string, error)
	RenderForm(fields map[string]string) (string, error)
}

// CheckoutService creates pending payments for held orders and produces the
// signed gateway form.
type CheckoutService struct {
	db        *gorm.DB
	gateway   CheckoutGateway
	actionURL string
	log       *zap.Logger
	now       Clock
}

func NewCheckoutService(db *gorm.DB, gateway *ecpay.Client, log *zap.Logger) *CheckoutService {
	return &CheckoutService{db: db, gateway: gateway, actionURL: gateway.Config.CheckoutURL, log: log, now: time.Now}
}

func (s *CheckoutService) InitiateCheckout(ctx context.Context, orderID string, caller model.TokenClaim) (res *model.CheckoutResponse, err error) {
	defer func() { monitoring.TrackCheckout(err) }()

	if err := requireUUID(orderID, "orderId"); err != nil {
		return nil, err
	}

	var order model.Order
	err = s.db.WithContext(ctx).
		Preload("TicketType.Session.Concert").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, notFoundOr(err, constants.ORDER_NOT_FOUND, "order not found")
	}
	if order.BuyerID != caller.UserID {
		return nil, utils.ForbiddenError(constants.FORBIDDEN, "order belongs to another buyer")
	}
	if order.Status != model.OrderHeld {
		return nil, utils.ConflictError(constants.INVALID_ORDER_STATUS, "order is "+order.Status)
	}
	now := s.now()
	if now.After(order.LockExpireTime) {
		return nil, utils.ConflictError(constants.ORDER_EXPIRED, "reservation hold has expired")
	}

	ticketType := order.TicketType
	if ticketType.ID == "" {
		return nil, utils.NotFoundError(constants.NOT_FOUND, "ticket type not found")
	}
	amount := ticketType.UnitPrice
	if amount <= 0 {
		return nil, utils.ValidationError(constants.INVALID_AMOUNT, "ticket price must be positive")
	}

	payment := model.Payment{
		OrderID:  order.ID,
		Status:   model.PaymentPending,
		Amount:   amount,
		Currency: model.CurrencyTWD,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only one pending payment per order. An earlier attempt is superseded
		// but a late capture of it is still recorded by the callback.
		if err := tx.Model(&model.Payment{}).
			Where("order_id = ? AND status = ?", order.ID, model.PaymentPending).
			Update("status", model.PaymentFailed).Error; err != nil {
			return err
		}

		tradeNo, err := uniqueMerchantTradeNo(tx, order.ID, now)
		if err != nil {
			return err
		}
		payment.MerchantTradeNo = tradeNo
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, utils.AsAppError(err)
	}

	concert := ticketType.Session.Concert
	fields, err := s.gateway.CheckoutFields(model.CheckoutRequest{
		OrderID:         order.ID,
		MerchantTradeNo: payment.MerchantTradeNo,
		TradeDate:       now,
		TotalAmount:     amount,
		TradeDesc:       tradeDescription(concert, ticketType.Session),
		ItemName:        fmt.Sprintf("%s %s x 1", concert.Title, ticketType.Name),
	})
	var html string
	if err == nil {
		html, err = s.gateway.RenderForm(fields)
	}
	if err != nil {
		s.failPayment(ctx, payment.ID)
		return nil, utils.SystemError("build checkout form", err)
	}

	s.log.Info("checkout initiated",
		zap.String("order_id", order.ID),
		zap.String("merchant_trade_no", payment.MerchantTradeNo),
		zap.Int64("amount", amount))

	return &model.CheckoutResponse{
		PaymentID:       payment.ID,
		MerchantTradeNo: payment.MerchantTradeNo,
		ActionURL:       s.actionURL,
		Fields:          fields,
		HTML:            html,
	}, nil
}

func (s *CheckoutService) failPayment(ctx context.Context, paymentID string) {
	err := s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentPending).
		Update("status", model.PaymentFailed).Error
	if err != nil {
		s.log.Error("mark payment failed", zap.String("payment_id", paymentID), zap.Error(err))
	}
}

// uniqueMerchantTradeNo derives a gateway trade number from the order id and
// the current unix time, adding a random suffix on collision.
func uniqueMerchantTradeNo(tx *gorm.DB, orderID string, now time.Time) (string, error) {
	base := strings.ReplaceAll(orderID, "-", "")[:8] + fmt.Sprintf("%d", now.Unix())
	for attempt := 0; attempt < merchantTradeNoAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s%02d", base, rand.IntN(100))
		}
		if len(candidate) > 20 {
			candidate = candidate[:20]
		}
		var count int64
		if err := tx.Model(&model.Payment{}).Where("merchant_trade_no = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", utils.SystemError("could not allocate a unique merchant trade number", nil)
}

func tradeDescription(concert model.Concert, session model.Session) string {
	desc := concert.Title
	if session.Title != "" {
		desc += " " + session.Title
	}
	if concert.Description != "" {
		desc += " " + concert.Description
	}
	return desc
}
