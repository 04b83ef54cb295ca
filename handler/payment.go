package handler

import (
	"errors"
	"fmt"
	"log"
	"net/url"

	"storefront/constants"
	"storefront/model"
	"storefront/order"
	"storefront/payment"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

// paymentError maps a payment service failure to a status and message key.
func paymentError(c *fiber.Ctx, lang string, err error) error {
	var declined *payment.DeclinedError
	switch {
	case errors.As(err, &declined):
		msg, known := constants.DeclineMessage(lang, declined.Code)
		if !known {
			msg = fmt.Sprintf(msg, declined.Code)
		}
		return utils.ErrorResponseHaveKey(c, fiber.StatusPaymentRequired, msg, err, constants.PAYMENT_DECLINED)
	case errors.Is(err, payment.ErrAmountTooLow):
		return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(lang, constants.AMOUNT_TOO_LOW), err, constants.AMOUNT_TOO_LOW)
	case errors.Is(err, payment.ErrOrderNotPayable):
		return utils.ErrorResponseHaveKey(c, fiber.StatusConflict, constants.Message(lang, constants.ORDER_NOT_PAYABLE), err, constants.ORDER_NOT_PAYABLE)
	case errors.Is(err, payment.ErrProviderNotConfigured), errors.Is(err, payment.ErrTokenizationNotOffered):
		return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(lang, constants.PROVIDER_NOT_CONFIGURED), err, constants.PROVIDER_NOT_CONFIGURED)
	case errors.Is(err, order.ErrStoreNotFound):
		return utils.ErrorResponseHaveKey(c, fiber.StatusNotFound, constants.Message(lang, constants.STORE_NOT_FOUND), err, constants.STORE_NOT_FOUND)
	case errors.Is(err, order.ErrNotFound):
		return utils.ErrorResponseHaveKey(c, fiber.StatusNotFound, constants.Message(lang, constants.ORDER_NOT_FOUND), err, constants.ORDER_NOT_FOUND)
	}
	log.Printf("[PAYMENT] request failed: %v", err)
	return utils.ErrorResponseHaveKey(c, fiber.StatusBadGateway, constants.Message(lang, constants.PAYMENT_FAILED), err, constants.PAYMENT_FAILED)
}

func TokenizeCard(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.TokenizeInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(locale(c, ""), constants.ERROR_PARSE_DATA_TO_LOCALS), nil)
	}

	token, err := paymentService.Tokenize(c.UserContext(), input)
	if err != nil {
		return paymentError(c, locale(c, ""), err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"token": token})
}

func ChargePayment(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.ChargePaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(locale(c, ""), constants.ERROR_PARSE_DATA_TO_LOCALS), nil)
	}
	lang := locale(c, input.Locale)
	input.Locale = lang
	input.ClientIP = c.IP()

	out, err := paymentService.Charge(c.UserContext(), input)
	if err != nil {
		return paymentError(c, lang, err)
	}
	if out.Requires3DS {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success":     false,
			"requires3DS": true,
			"redirectUrl": out.RedirectURL,
			"reference":   out.Reference,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       out.Success,
		"transactionId": out.TransactionID,
		"reference":     out.Reference,
	})
}

func callbackRequest(c *fiber.Ctx) payment.CallbackRequest {
	query := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		query.Add(string(k), string(v))
	})
	return payment.CallbackRequest{
		Query:     query,
		Body:      append([]byte(nil), c.Body()...),
		Signature: c.Get("X-Signature"),
	}
}

// PaymentCallback receives asynchronous results (3-D Secure, IPN). Replays
// are acknowledged without applying anything twice.
func PaymentCallback(c *fiber.Ctx) error {
	storeID, err := c.ParamsInt("store")
	if err != nil || storeID <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.Message(defaultLocale, constants.DATA_INPUT_IS_NOT_NUMBER), err)
	}

	out, err := paymentService.HandleCallback(c.UserContext(), c.Params("provider"), uint(storeID), callbackRequest(c))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidCallback), errors.Is(err, payment.ErrProviderNotConfigured):
			return utils.ErrorResponseHaveKey(c, fiber.StatusBadRequest, constants.Message(defaultLocale, constants.CALLBACK_INVALID), err, constants.CALLBACK_INVALID)
		case errors.Is(err, payment.ErrUnknownTransaction):
			return utils.ErrorResponseHaveKey(c, fiber.StatusNotFound, constants.Message(defaultLocale, constants.ORDER_NOT_FOUND), err, constants.ORDER_NOT_FOUND)
		}
		log.Printf("[PAYMENT] callback %s store=%d failed: %v", c.Params("provider"), storeID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(defaultLocale, constants.ERROR_INTERNAL_ERROR), err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"orderId":    out.OrderID,
		"publicCode": out.PublicCode,
		"status":     out.Status,
		"duplicate":  out.Duplicate,
	})
}

// VNPayReturn settles the buyer-facing redirect and sends them to the order page.
func VNPayReturn(c *fiber.Ctx) error {
	storeID, _ := c.ParamsInt("store")
	req := callbackRequest(c)

	out, err := paymentService.HandleCallback(c.UserContext(), payment.VNPayName, uint(storeID), req)
	if err != nil {
		log.Printf("[PAYMENT] vnpay return store=%d ref=%s failed: %v", storeID, req.Query.Get("vnp_TxnRef"), err)
		return c.Redirect(paymentService.ResultURL("", "failed"))
	}
	return c.Redirect(paymentService.ResultURL(out.PublicCode, out.Status))
}
