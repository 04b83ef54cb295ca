package helper

import (
	"log"
	"time"

	"storefront/database"
	"storefront/model"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var scheduler *cron.Cron

func StartDiscountScheduler() {
	scheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	_, err := scheduler.AddFunc("*/5 * * * *", func() {
		if _, err := DeactivateEndedDiscounts(database.DB, time.Now()); err != nil {
			log.Printf("[CRON] deactivate discounts: %v", err)
		}
	})
	if err != nil {
		log.Printf("[CRON] discount scheduler init: %v", err)
		return
	}

	scheduler.Start()
	log.Println("[CRON] discount scheduler started (every 5 minutes)")
}

func StopDiscountScheduler() {
	if scheduler != nil {
		<-scheduler.Stop().Done()
		log.Println("[CRON] discount scheduler stopped")
	}
}

// DeactivateEndedDiscounts switches off coupons and automatic discounts whose
// window closed before now. Pricing already ignores them; this keeps admin
// listings honest.
func DeactivateEndedDiscounts(db *gorm.DB, now time.Time) (int64, error) {
	var total int64
	for _, m := range []any{&model.Coupon{}, &model.AutomaticDiscount{}} {
		result := db.Model(m).
			Where("active = ? AND ends_at IS NOT NULL AND ends_at < ?", true, now).
			Update("active", false)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
	}
	if total > 0 {
		log.Printf("[CRON] deactivated %d ended discounts", total)
	}
	return total, nil
}
