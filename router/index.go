package router

import (
	"ticket_engine/config"
	"ticket_engine/handler"
	"ticket_engine/middleware"
	"ticket_engine/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if cfg.Server.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	protected := middleware.Protected(cfg.Auth.JWTSecret)

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	orders := v1.Group("/orders")
	orders.Post("/", protected, validate.CreateOrder(), h.CreateOrder)
	orders.Get("/:orderId", protected, validate.UUIDParam("orderId"), h.GetOrder)
	orders.Post("/:orderId/checkout", protected, validate.UUIDParam("orderId"), h.Checkout)
	orders.Post("/:orderId/refund", protected, validate.UUIDParam("orderId"), h.RefundOrder)

	tickets := v1.Group("/tickets")
	tickets.Post("/verify", protected, validate.VerifyTicket(), h.VerifyTicket)
	tickets.Get("/:orderId/qr", protected, validate.UUIDParam("orderId"), h.TicketQRCode)

	payments := app.Group("/payments", logger.New())
	payments.Post("/ecpay/callback", h.ECPayCallback)

	ws := app.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/ticket-types/:ticketTypeId", validate.UUIDParam("ticketTypeId"), websocket.New(h.InventoryStream))
}
