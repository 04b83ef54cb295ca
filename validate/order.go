package validate

import (
	"storefront/constants"
	"storefront/model"
	"storefront/pricing"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func CreateOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateOrderInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.ERROR_INPUT), err, constants.ERROR_INPUT)
		}
		if len(input.Items) == 0 {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.CART_EMPTY), nil, constants.CART_EMPTY)
		}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.ERROR_INPUT), err, constants.ERROR_INPUT)
		}
		if input.CreditToApply.IsNegative() {
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(input.Locale, constants.ERROR_INPUT), nil, constants.ERROR_INPUT)
		}
		input.Customer.Email = pricing.NormalizeEmail(input.Customer.Email)

		c.Locals("input", input)
		return c.Next()
	}
}
