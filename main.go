package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/checkout"
	"storefront/config"
	"storefront/database"
	"storefront/dispatch"
	"storefront/handler"
	"storefront/helper"
	"storefront/payment"
	"storefront/router"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	settings := config.Load()
	database.ConnectDB()

	rdb := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
	defer rdb.Close()

	mailer := utils.SMTPMailer{Settings: utils.SMTPSettings{
		Host:     settings.SMTPHost,
		Port:     settings.SMTPPort,
		Username: settings.SMTPUsername,
		Password: settings.SMTPPassword,
		From:     settings.SMTPFrom,
	}}
	dispatcher := dispatch.New(dispatch.Options{
		Timeout: settings.DispatchTimeout,
		Retries: settings.DispatchRetries,
	},
		&dispatch.ConfirmationEmail{DB: database.DB, Mailer: mailer, AppURL: settings.AppURL},
		&dispatch.LowStockAlert{DB: database.DB, Mailer: mailer},
		&dispatch.LoyaltyAccrual{DB: database.DB},
		&dispatch.OrderFeed{DB: database.DB, Publisher: dispatch.RedisPublisher{Client: rdb}},
	)

	handler.Init(handler.Deps{
		DB:            database.DB,
		Checkout:      checkout.NewService(database.DB, dispatcher),
		Payments:      payment.NewService(database.DB, dispatcher, settings.AppURL),
		Redis:         rdb,
		DefaultLocale: settings.DefaultLocale,
	})

	helper.StartDiscountScheduler()
	helper.StartGiftCardExpiryScheduler()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     settings.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Accept-Language, X-Signature",
		AllowCredentials: true,
		MaxAge:           600,
	}))
	router.SetupRoutes(app, settings)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(settings.HTTPAddr); err != nil {
		log.Printf("listen: %v", err)
	}

	helper.StopDiscountScheduler()
	helper.StopGiftCardExpiryScheduler()
	// let in-flight post-payment tasks finish
	dispatcher.Wait()
	dispatcher.Close()
}
