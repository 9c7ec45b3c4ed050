package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"ticket_engine/constants"
	"ticket_engine/ecpay"
	"ticket_engine/model"
	"ticket_engine/monitoring"
	"ticket_engine/notify"
	"ticket_engine/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CallbackGateway interface {
	VerifyCallback(form url.Values) error
	ParseCallback(form url.Values) (*model.ECPayCallback, error)
	ParsePaymentDate(value string) (time.Time, error)
}

// WebhookService reconciles gateway callbacks with payments and orders.
type WebhookService struct {
	db      *gorm.DB
	gateway CallbackGateway
	issuer  *TicketIssuer
	bus     notify.Bus
	log     *zap.Logger
	now     Clock

	acceptSimulated bool
}

func NewWebhookService(db *gorm.DB, gateway *ecpay.Client, issuer *TicketIssuer, bus notify.Bus, log *zap.Logger) *WebhookService {
	return &WebhookService{
		db: db, gateway: gateway, issuer: issuer, bus: bus, log: log, now: time.Now,
		acceptSimulated: gateway.Config.AcceptSimulatedPaid,
	}
}

type callbackOutcome struct {
	duplicate bool
	paid      bool
	orphaned  bool
	orderID   string
	ticketID  string
}

// HandleCallback verifies and applies a gateway callback. It returns the
// acknowledgement body expected by the gateway. Replays of an already
// processed callback are acknowledged without side effects.
func (s *WebhookService) HandleCallback(ctx context.Context, form url.Values) (string, error) {
	if err := s.gateway.VerifyCallback(form); err != nil {
		monitoring.TrackCallback("signature_invalid")
		s.log.Warn("callback rejected", zap.String("merchant_trade_no", form.Get(ecpay.FieldMerchantTradeNo)), zap.Error(err))
		return "", utils.ConflictError(constants.SIGNATURE_INVALID, "CheckMacValue mismatch")
	}
	cb, err := s.gateway.ParseCallback(form)
	if err != nil {
		monitoring.TrackCallback("invalid_format")
		return "", utils.ValidationError(constants.INVALID_FORMAT, err.Error())
	}
	if cb.SimulatePaid == ecpay.SimulatePaidYes && !s.acceptSimulated {
		monitoring.TrackCallback("simulated")
		s.log.Warn("simulated payment callback ignored",
			zap.String("merchant_trade_no", cb.MerchantTradeNo),
			zap.String("rtn_code", cb.RtnCode))
		return ecpay.CallbackAck, nil
	}

	now := s.now()
	var outcome callbackOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("merchant_trade_no = ?", cb.MerchantTradeNo).
			First(&payment).Error; err != nil {
			return notFoundOr(err, constants.PAYMENT_NOT_FOUND, "payment not found")
		}
		outcome.orderID = payment.OrderID
		superseded := isSuperseded(&payment)
		if payment.Status != model.PaymentPending && !superseded {
			outcome.duplicate = true
			return nil
		}

		success := cb.RtnCode == ecpay.RtnCodeSuccess
		if success && cb.TradeAmt != payment.Amount {
			s.log.Error("callback amount mismatch",
				zap.String("merchant_trade_no", cb.MerchantTradeNo),
				zap.Int64("expected", payment.Amount),
				zap.Int64("got", cb.TradeAmt))
			success = false
		}

		updates := map[string]any{
			"gateway_trade_no":     cb.TradeNo,
			"raw_callback_payload": form.Encode(),
			"status":               model.PaymentFailed,
		}
		if success {
			paidAt, err := s.gateway.ParsePaymentDate(cb.PaymentDate)
			if err != nil {
				paidAt = now
			}
			updates["status"] = model.PaymentCompleted
			updates["paid_at"] = paidAt
			if superseded {
				s.log.Error("payment captured on superseded checkout",
					zap.String("order_id", payment.OrderID),
					zap.String("merchant_trade_no", cb.MerchantTradeNo),
					zap.String("gateway_trade_no", cb.TradeNo))
			}
		}
		result := tx.Model(&model.Payment{}).
			Where("id = ? AND (status = ? OR (status = ? AND raw_callback_payload = ?))",
				payment.ID, model.PaymentPending, model.PaymentFailed, "").
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			outcome.duplicate = true
			return nil
		}
		if !success {
			return nil
		}

		var order model.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", payment.OrderID).Error; err != nil {
			return err
		}
		if order.Status != model.OrderHeld {
			// The capture stays recorded as completed so the order can be refunded.
			s.log.Error("payment completed for order that is no longer held",
				zap.String("order_id", order.ID),
				zap.String("status", order.Status),
				zap.String("merchant_trade_no", cb.MerchantTradeNo))
			outcome.orphaned = true
			return nil
		}
		if err := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, model.OrderHeld).
			Update("status", model.OrderPaid).Error; err != nil {
			return err
		}
		order.Status = model.OrderPaid

		ticket, _, err := s.issuer.Issue(tx, &order)
		if err != nil {
			return err
		}
		outcome.paid = true
		outcome.ticketID = ticket.ID
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) && appErr.Kind == utils.KindNotFound {
			monitoring.TrackCallback("unknown_payment")
			return "", appErr
		}
		monitoring.TrackCallback("error")
		s.log.Error("callback processing failed", zap.String("merchant_trade_no", cb.MerchantTradeNo), zap.Error(err))
		return "", utils.SystemError("process callback", err)
	}

	switch {
	case outcome.duplicate:
		monitoring.TrackCallback("duplicate")
		s.log.Info("duplicate callback acknowledged", zap.String("merchant_trade_no", cb.MerchantTradeNo))
	case outcome.orphaned:
		monitoring.TrackCallback("orphaned")
	case outcome.paid:
		monitoring.TrackCallback("paid")
		s.log.Info("order paid",
			zap.String("order_id", outcome.orderID),
			zap.String("ticket_id", outcome.ticketID))
		notify.PublishSafe(ctx, s.bus, s.log, notify.OrderChannel(outcome.orderID), notify.OrderEvent{
			OrderID: outcome.orderID, Status: model.OrderPaid, At: now,
		})
	default:
		monitoring.TrackCallback("failed")
		s.log.Info("payment not completed",
			zap.String("merchant_trade_no", cb.MerchantTradeNo),
			zap.String("rtn_code", cb.RtnCode),
			zap.String("rtn_msg", cb.RtnMsg))
	}
	return ecpay.CallbackAck, nil
}

// isSuperseded reports whether a payment was failed locally by a later
// checkout before the gateway ever called back for it. The gateway may still
// capture such a trade.
func isSuperseded(p *model.Payment) bool {
	return p.Status == model.PaymentFailed && p.RawCallbackPayload == ""
}
