package handler

import (
	"errors"

	"storefront/constants"
	"storefront/database"
	"storefront/helper"
	"storefront/model"
	"storefront/pricing"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

// CustomerLogin issues a store-scoped token for a customer who created an
// account at checkout. The token lets the customer spend store credit.
func CustomerLogin(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.CustomerLoginInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(locale(c, ""), constants.ERROR_PARSE_DATA_TO_LOCALS), nil)
	}
	lang := locale(c, "")

	store, err := orderRepo.StoreBySlug(c.UserContext(), input.StoreSlug)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.Message(lang, constants.STORE_NOT_FOUND), err)
	}

	customer, err := helper.GetCustomerByEmail(database.DB.WithContext(c.UserContext()), store.ID, pricing.NormalizeEmail(input.Email))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}
	if customer == nil || customer.Password == nil || !helper.CheckPasswordHash(input.Password, *customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.Message(lang, constants.INVALID_CREDENTIALS), errors.New("email or password does not match"))
	}

	token, err := helper.GenerateAccessToken(model.TokenClaim{
		CustomerId: customer.ID,
		StoreId:    store.ID,
		Username:   customer.Email,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.TokenData{AccessToken: token})
}

// GetCurrentCustomer returns the signed-in customer with their credit balance.
func GetCurrentCustomer(c *fiber.Ctx) error {
	customer, ok := c.Locals("customer").(*model.Customer)
	if !ok || customer == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.Message(locale(c, ""), constants.INVALID_CREDENTIALS), nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, customer)
}
