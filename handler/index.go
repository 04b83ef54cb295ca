package handler

import (
	"strings"

	"storefront/checkout"
	"storefront/constants"
	"storefront/order"
	"storefront/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Deps struct {
	DB            *gorm.DB
	Checkout      *checkout.Service
	Payments      *payment.Service
	Redis         *redis.Client
	DefaultLocale string
}

var (
	checkoutService *checkout.Service
	paymentService  *payment.Service
	orderRepo       *order.Repository
	redisClient     *redis.Client
	defaultLocale   = constants.DefaultLocale
)

// Init wires the services the handlers call. It must run before routes are served.
func Init(d Deps) {
	checkoutService = d.Checkout
	paymentService = d.Payments
	orderRepo = order.NewRepository(d.DB)
	redisClient = d.Redis
	if d.DefaultLocale != "" {
		defaultLocale = d.DefaultLocale
	}
}

// locale picks the buyer's language from the request, then Accept-Language.
func locale(c *fiber.Ctx, requested string) string {
	if requested == "" {
		requested = c.Query("locale")
	}
	if requested == "" {
		requested = c.Get(fiber.HeaderAcceptLanguage)
	}
	requested = strings.ToLower(requested)
	switch {
	case strings.HasPrefix(requested, "vi"):
		return "vi"
	case strings.HasPrefix(requested, "en"):
		return "en"
	}
	return defaultLocale
}
