package middleware

import (
	"errors"
	"strings"

	"ticket_engine/constants"
	"ticket_engine/helper"
	"ticket_engine/model"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
)

const CallerKey = "caller"

// Protected requires a valid access token from the access_token cookie or
// an Authorization bearer header and stores the caller in Locals.
func Protected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")
		if token == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New(constants.UNAUTHORIZED))
		}

		caller, err := helper.ParseAccessToken(token, secret)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", errors.New(constants.UNAUTHORIZED))
		}

		c.Locals(CallerKey, caller)
		return c.Next()
	}
}

// Caller returns the identity stored by Protected.
func Caller(c *fiber.Ctx) model.TokenClaim {
	caller, _ := c.Locals(CallerKey).(model.TokenClaim)
	return caller
}
