package handler

import (
	"ticket_engine/middleware"
	"ticket_engine/model"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) VerifyTicket(c *fiber.Ctx) error {
	input := c.Locals("input").(model.VerifyTicketInput)

	receipt, err := h.redemptions.VerifyTicket(c.UserContext(), input.Credential, middleware.Caller(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, receipt)
}

// TicketQRCode renders the caller's ticket credential as a PNG.
func (h *Handler) TicketQRCode(c *fiber.Ctx) error {
	credential, err := h.orders.TicketCredential(c.UserContext(), c.Locals("inputId").(string), middleware.Caller(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	png, err := utils.GenerateQRCode(credential, c.QueryInt("size", utils.DefaultQRSize))
	if err != nil {
		return utils.HandleError(c, utils.SystemError("generate QR code", err))
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(png)
}
