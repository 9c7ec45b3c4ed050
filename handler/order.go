package handler

import (
	"ticket_engine/middleware"
	"ticket_engine/model"
	"ticket_engine/service"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateOrderInput)
	caller := middleware.Caller(c)

	res, err := h.reservations.CreateReservation(c.UserContext(), service.ReservationInput{
		TicketTypeID: input.TicketTypeID,
		BuyerID:      caller.UserID,
		Purchaser:    input.Purchaser,
	})
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, res)
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Locals("inputId").(string), middleware.Caller(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) RefundOrder(c *fiber.Ctx) error {
	res, err := h.refunds.RefundOrder(c.UserContext(), c.Locals("inputId").(string), middleware.Caller(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}
