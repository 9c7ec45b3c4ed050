package handler

import (
	"net/url"

	"ticket_engine/middleware"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
)

// Checkout returns the signed gateway form. With ?format=html the
// auto-submitting form is returned as the page body.
func (h *Handler) Checkout(c *fiber.Ctx) error {
	res, err := h.checkouts.InitiateCheckout(c.UserContext(), c.Locals("inputId").(string), middleware.Caller(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	if c.Query("format") == "html" {
		c.Type("html")
		return c.SendString(res.HTML)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

// ECPayCallback answers the gateway in its plain-text protocol: "1|OK" when
// the callback was applied or already seen, "0|reason" otherwise.
func (h *Handler) ECPayCallback(c *fiber.Ctx) error {
	form, err := url.ParseQuery(string(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("0|invalid form")
	}

	ack, err := h.webhooks.HandleCallback(c.UserContext(), form)
	if err != nil {
		appErr := utils.AsAppError(err)
		if appErr.Kind == utils.KindSystem {
			return c.Status(fiber.StatusInternalServerError).SendString("0|error")
		}
		return c.Status(appErr.Status()).SendString("0|" + appErr.Code)
	}
	return c.SendString(ack)
}
