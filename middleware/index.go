package middleware

import (
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/constants"
	"storefront/helper"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

func bearer(c *fiber.Ctx) string {
	token := c.Cookies("access_token")
	if token == "" {
		auth := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return token
}

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearer(c)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(token)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("user", jwtToken)
		claim, customer := helper.GetInfoCustomerFromToken(c, 0)
		if claim.CustomerId == 0 || customer == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", errors.New("customer not found"))
		}
		return c.Next()
	}
}

// OptionalJWT attaches a valid token when one is sent; guests pass through.
func OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", nil)

		token := bearer(c)
		if token == "" {
			return c.Next()
		}
		jwtToken, err := helper.ParseToken(token)
		if err != nil || !jwtToken.Valid {
			return c.Next()
		}
		c.Locals("user", jwtToken)
		return c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each client IP r requests per second with the given burst.
func RateLimit(r float64, burst int) fiber.Handler {
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
		lastGC   = time.Now()
	)

	return func(c *fiber.Ctx) error {
		now := time.Now()
		ip := c.IP()

		mu.Lock()
		if now.Sub(lastGC) > time.Minute {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > 10*time.Minute {
					delete(visitors, k)
				}
			}
			lastGC = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(r), burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, "1")
			return utils.ErrorResponseHaveKey(c, fiber.StatusTooManyRequests,
				constants.Message(c.Query("locale"), constants.TOO_MANY_REQUESTS), errors.New("rate limited"), constants.TOO_MANY_REQUESTS)
		}
		return c.Next()
	}
}
