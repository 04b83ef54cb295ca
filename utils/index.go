package utils

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if err != nil {
		errMsg = err.Error()
	} else {
		errMsg = nil
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   errMsg,
	})
}

func ErrorResponseHaveKey(c *fiber.Ctx, status int, message string, err error, keyError string) error {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	} else {
		errMsg = ""
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   "error",
		"message":  message,
		"errors":   errMsg,
		"keyError": keyError,
	})
}

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func ApplyPagination(query *gorm.DB, limit, page *int) *gorm.DB {
	if limit != nil && *limit > 0 && page != nil && *page >= 1 {
		query = query.Limit(*limit)
		offset := *limit * (*page - 1)
		query = query.Offset(offset)
	}

	return query
}
