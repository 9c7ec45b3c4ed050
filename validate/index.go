package validate

import (
	"errors"

	"ticket_engine/constants"
	"ticket_engine/model"
	"ticket_engine/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// UUIDParam rejects requests whose route param key is not a UUID.
func UUIDParam(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := c.Params(key)
		if !utils.IsUUID(value) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, key+" must be a UUID", errors.New(constants.INVALID_FORMAT))
		}
		c.Locals("inputId", value)
		return c.Next()
	}
}

func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateOrderInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", errors.New(constants.INVALID_FORMAT))
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), errors.New(constants.INVALID_FORMAT))
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func VerifyTicket() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.VerifyTicketInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", errors.New(constants.INVALID_FORMAT))
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), errors.New(constants.INVALID_FORMAT))
		}
		c.Locals("input", input)
		return c.Next()
	}
}
