package handler

import (
	"errors"
	"fmt"

	"storefront/checkout"
	"storefront/constants"
	"storefront/helper"
	"storefront/inventory"
	"storefront/model"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func CreateOrder(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.CreateOrderInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(locale(c, ""), constants.ERROR_PARSE_DATA_TO_LOCALS), nil)
	}
	lang := locale(c, input.Locale)

	claim, _ := helper.GetInfoCustomerFromToken(c, input.StoreID)
	input.SessionCustomerID = claim.CustomerId

	res, err := checkoutService.CreateOrder(c.UserContext(), input)
	if err != nil {
		var stockErr *inventory.InsufficientStockError
		var validationErr *checkout.ValidationError
		switch {
		case errors.As(err, &stockErr):
			msg := fmt.Sprintf(constants.Message(lang, constants.INSUFFICIENT_INVENTORY), stockErr.Item)
			return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, msg, err, constants.INSUFFICIENT_INVENTORY)
		case errors.As(err, &validationErr):
			status := fiber.StatusBadRequest
			if validationErr.Key == constants.STORE_NOT_FOUND {
				status = fiber.StatusNotFound
			}
			return utils.ErrorResponseHaveKey(c, status, constants.Message(lang, validationErr.Key), err, validationErr.Key)
		}
		return utils.ErrorResponseHaveKey(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ORDER_CREATE_FAILED), err, constants.ORDER_CREATE_FAILED)
	}

	b := res.Breakdown
	return utils.SuccessResponse(c, fiber.StatusCreated, fiber.Map{
		"orderId":         res.OrderID,
		"orderNumber":     res.OrderNumber,
		"publicCode":      res.PublicCode,
		"financialStatus": res.FinancialStatus,
		"subtotal":        b.Subtotal,
		"discount":        b.DiscountAmount(),
		"shipping":        b.Shipping,
		"giftCard":        b.GiftCardAmount,
		"credit":          b.CreditUsed,
		"total":           res.Total,
		"discountDetails": b.Discounts,
	})
}
