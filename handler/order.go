package handler

import (
	"encoding/base64"
	"errors"
	"log"

	"storefront/constants"
	"storefront/database"
	"storefront/model"
	"storefront/order"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetOrderDetail returns an order by its public code with a QR image for pickup.
func GetOrderDetail(c *fiber.Ctx) error {
	lang := locale(c, "")
	code := c.Params("publicCode")

	o, err := orderRepo.GetByPublicCode(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.Message(lang, constants.ORDER_NOT_FOUND), err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}

	qrBase64 := ""
	qrBytes, err := utils.GenerateQRCode(o.PublicCode, 400)
	if err != nil {
		log.Printf("QR generation failed for order %s: %v", o.PublicCode, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"order":  o,
		"qrCode": qrBase64,
	})
}

// GetMyOrders lists the signed-in customer's orders, newest first.
func GetMyOrders(c *fiber.Ctx) error {
	lang := locale(c, "")
	customer, ok := c.Locals("customer").(*model.Customer)
	if !ok || customer == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.Message(lang, constants.INVALID_CREDENTIALS), nil)
	}

	limit := c.QueryInt("limit", 20)
	page := c.QueryInt("page", 1)
	if limit > 100 {
		limit = 100
	}

	var (
		orders []model.Order
		total  int64
	)
	mine := func() *gorm.DB {
		return database.DB.WithContext(c.UserContext()).
			Model(&model.Order{}).
			Where("store_id = ? AND customer_id = ?", customer.StoreID, customer.ID)
	}
	if err := mine().Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}
	query := mine().Preload("Items").Order("created_at desc, id desc")
	if err := utils.ApplyPagination(query, &limit, &page).Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}

	response := make([]fiber.Map, 0, len(orders))
	for _, o := range orders {
		response = append(response, fiber.Map{
			"orderNumber":     o.OrderNumber,
			"publicCode":      o.PublicCode,
			"financialStatus": o.FinancialStatus,
			"total":           o.Total,
			"currency":        o.Currency,
			"itemCount":       len(o.Items),
			"createdAt":       o.CreatedAt,
			"paidAt":          o.PaidAt,
		})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       response,
		Limit:      &limit,
		Page:       &page,
		TotalCount: total,
	})
}
