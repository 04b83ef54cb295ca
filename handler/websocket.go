package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"

	"storefront/constants"
	"storefront/dispatch"
	"storefront/order"
	"storefront/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// FeedUpgrade authorizes the store feed and upgrades the connection.
func FeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	lang := locale(c, "")
	store, err := orderRepo.StoreBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, order.ErrStoreNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.Message(lang, constants.STORE_NOT_FOUND), err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.Message(lang, constants.ERROR_INTERNAL_ERROR), err)
	}
	key := c.Query("key")
	if store.FeedKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(store.FeedKey)) != 1 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.Message(lang, constants.INVALID_CREDENTIALS), nil)
	}
	c.Locals("storeId", store.ID)
	return c.Next()
}

// OrderFeedConnection relays the store's paid-order messages from redis.
func OrderFeedConnection(c *websocket.Conn) {
	storeID, _ := c.Locals("storeId").(uint)

	defer c.Close()

	pubsub := redisClient.Subscribe(context.Background(), dispatch.FeedChannel(storeID))
	defer pubsub.Close()

	// reads only detect the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	channel := pubsub.Channel()
	for {
		select {
		case <-closed:
			return
		case msg, ok := <-channel:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("[FEED] store=%d write failed: %v", storeID, err)
				return
			}
		}
	}
}
