package handler

import (
	"ticket_engine/notify"
	"ticket_engine/service"

	"go.uber.org/zap"
)

type Handler struct {
	reservations *service.ReservationService
	checkouts    *service.CheckoutService
	webhooks     *service.WebhookService
	redemptions  *service.RedemptionService
	refunds      *service.RefundService
	orders       *service.OrderService
	bus          notify.Bus
	log          *zap.Logger
}

type Services struct {
	Reservations *service.ReservationService
	Checkouts    *service.CheckoutService
	Webhooks     *service.WebhookService
	Redemptions  *service.RedemptionService
	Refunds      *service.RefundService
	Orders       *service.OrderService
}

func New(s Services, bus notify.Bus, log *zap.Logger) *Handler {
	if bus == nil {
		bus = notify.NopBus{}
	}
	return &Handler{
		reservations: s.Reservations,
		checkouts:    s.Checkouts,
		webhooks:     s.Webhooks,
		redemptions:  s.Redemptions,
		refunds:      s.Refunds,
		orders:       s.Orders,
		bus:          bus,
		log:          log,
	}
}
