package helper

import (
	"log"
	"time"

	"storefront/database"
	"storefront/model"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

var giftCardScheduler gocron.Scheduler

// ExpireGiftCards marks active cards past their expiry as expired. Balances are
// left untouched for reporting.
func ExpireGiftCards(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&model.GiftCard{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.GiftCardActive, now).
		Update("status", model.GiftCardExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("[CRON] expired %d gift cards", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func StartGiftCardExpiryScheduler() {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}

	giftCardScheduler = s

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(func() {
			if _, err := ExpireGiftCards(database.DB, time.Now()); err != nil {
				log.Printf("[CRON] expire gift cards: %v", err)
			}
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	s.Start()
	log.Println("[CRON] gift card expiry scheduler started (00:05 daily)")
}

func StopGiftCardExpiryScheduler() {
	if giftCardScheduler != nil {
		if err := giftCardScheduler.Shutdown(); err != nil {
			log.Printf("[CRON] gift card scheduler shutdown: %v", err)
		}
	}
}
