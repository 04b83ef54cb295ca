package router

import (
	"storefront/config"
	"storefront/handler"
	"storefront/middleware"
	"storefront/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, settings config.Settings) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	customer := v1.Group("/customers")
	customer.Post("/login", validate.CustomerLogin(), handler.CustomerLogin)
	customer.Get("/me", middleware.Protected(), handler.GetCurrentCustomer)
	customer.Get("/me/orders", middleware.Protected(), handler.GetMyOrders)

	checkout := v1.Group("/checkout")
	checkout.Post("/orders", middleware.OptionalJWT(), validate.CreateOrder(), handler.CreateOrder)

	orders := v1.Group("/orders")
	orders.Get("/:publicCode", handler.GetOrderDetail)

	payments := v1.Group("/payments")
	payments.Post("/tokenize", middleware.RateLimit(settings.ChargeRateLimit, settings.ChargeBurst), validate.TokenizeCard(), handler.TokenizeCard)
	payments.Post("/charge", middleware.RateLimit(settings.ChargeRateLimit, settings.ChargeBurst), validate.ChargePayment(), handler.ChargePayment)
	payments.Get("/callback/:provider/:store", handler.PaymentCallback)
	payments.Post("/callback/:provider/:store", handler.PaymentCallback)

	stores := v1.Group("/stores")
	stores.Get("/:slug/orders/feed", handler.FeedUpgrade, websocket.New(handler.OrderFeedConnection))

	app.Get("/payments/vnpay/return/:store", logger.New(), handler.VNPayReturn)
}
