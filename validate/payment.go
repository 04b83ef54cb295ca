package validate

import (
	"storefront/constants"
	"storefront/model"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func ChargePayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ChargePaymentInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.ERROR_INPUT), err, constants.ERROR_INPUT)
		}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.ERROR_INPUT), err, constants.ERROR_INPUT)
		}

		c.Locals("input", input)
		return c.Next()
	}
}

func TokenizeCard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.TokenizeInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(c.Query("locale"), constants.ERROR_INPUT), err, constants.ERROR_INPUT)
		}
		if err := validate.Struct(&input); err != nil {
			// never echo card data back
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(c.Query("locale"), constants.ERROR_INPUT), nil, constants.ERROR_INPUT)
		}

		c.Locals("input", input)
		return c.Next()
	}
}
