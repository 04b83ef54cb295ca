package validate

import (
	"storefront/constants"
	"storefront/model"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func CustomerLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CustomerLoginInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(c.Query("locale"), constants.ERROR_INPUT), err)
		}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(c.Query("locale"), constants.ERROR_INPUT), err)
		}

		c.Locals("input", input)
		return c.Next()
	}
}
