package service

import (
	"context"
	"time"

	"ticket_engine/constants"
	"ticket_engine/ecpay"
	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/notify"
	"ticket_engine/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RefundGateway interface {
	Refund(ctx context.Context, req model.RefundRequest) (*model.RefundResult, error)
}

// RefundService refunds completed payments through the gateway and records
// the outcome.
type RefundService struct {
	db      *gorm.DB
	gateway RefundGateway
	bus     notify.Bus
	log     *zap.Logger
	now     Clock
}

func NewRefundService(db *gorm.DB, gateway *ecpay.Client, bus notify.Bus, log *zap.Logger) *RefundService {
	return &RefundService{db: db, gateway: gateway, bus: bus, log: log, now: time.Now}
}

// RefundOrder refunds the completed payment of an order owned by caller.
// Nothing is written unless the gateway accepts the refund.
func (s *RefundService) RefundOrder(ctx context.Context, orderID string, caller model.TokenClaim) (*model.RefundResponse, error) {
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

	payment, err := s.refundablePayment(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentCompleted {
		monitoring.TrackRefund("not_allowed")
		return nil, utils.ForbiddenError(constants.REFUND_NOT_ALLOWED, "payment is "+payment.Status)
	}
	if payment.GatewayTradeNo == "" {
		return nil, utils.NotFoundError(constants.PAYMENT_NOT_FOUND, "payment has no gateway trade number")
	}

	started := time.Now()
	result, err := s.gateway.Refund(ctx, model.RefundRequest{
		MerchantTradeNo: payment.MerchantTradeNo,
		TradeNo:         payment.GatewayTradeNo,
		TotalAmount:     payment.Amount,
	})
	monitoring.ObserveRefundDuration(started)
	if err != nil {
		monitoring.TrackRefund("error")
		s.log.Error("refund request failed", zap.String("order_id", order.ID), zap.Error(err))
		return nil, utils.SystemError("refund request", err)
	}
	if !result.Success() {
		monitoring.TrackRefund("rejected")
		s.log.Warn("refund rejected by gateway",
			zap.String("order_id", order.ID),
			zap.String("rtn_code", result.RtnCode),
			zap.String("rtn_msg", result.RtnMsg))
		return nil, utils.ConflictError(constants.REFUND_FAILED, "gateway rejected refund: "+result.RtnMsg)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", payment.ID, model.PaymentCompleted).
			Updates(map[string]any{"status": model.PaymentRefunded, "refunded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errUnchanged
		}
		if err := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, model.OrderPaid).
			Update("status", model.OrderRefunded).Error; err != nil {
			return err
		}
		return tx.Model(&model.Ticket{}).
			Where("order_id = ? AND status = ?", order.ID, model.TicketPurchased).
			Updates(map[string]any{"status": model.TicketRefunded, "refunded_at": now}).Error
	})
	if err == errUnchanged {
		monitoring.TrackRefund("conflict")
		return nil, utils.ConflictError(constants.REFUND_NOT_ALLOWED, "payment changed during refund")
	}
	if err != nil {
		monitoring.TrackRefund("error")
		s.log.Error("refund accepted by gateway but not recorded", zap.String("order_id", order.ID), zap.Error(err))
		return nil, utils.SystemError("record refund", err)
	}

	monitoring.TrackRefund("ok")
	s.log.Info("order refunded", zap.String("order_id", order.ID), zap.Int64("amount", payment.Amount))
	notify.PublishSafe(ctx, s.bus, s.log, notify.OrderChannel(order.ID), notify.OrderEvent{
		OrderID: order.ID, Status: model.OrderRefunded, At: now,
	})

	return &model.RefundResponse{
		OrderID:    order.ID,
		Status:     model.OrderRefunded,
		Amount:     payment.Amount,
		RefundedAt: now,
	}, nil
}

// refundablePayment prefers a completed or refunded payment over the latest
// attempt, since superseded checkouts leave failed rows behind.
func (s *RefundService) refundablePayment(ctx context.Context, orderID string) (*model.Payment, error) {
	var payments []model.Payment
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, utils.SystemError("load payments", err)
	}
	if len(payments) == 0 {
		return nil, utils.NotFoundError(constants.PAYMENT_NOT_FOUND, "order has no payment")
	}
	for i := range payments {
		if payments[i].Status == model.PaymentCompleted || payments[i].Status == model.PaymentRefunded {
			return &payments[i], nil
		}
	}
	return &payments[0], nil
}
