package helper

import (
	"log"
	"time"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/model"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

var cleanupScheduler gocron.Scheduler

// StalePendingOrderAge is how long an order may sit in Pending before the
// nightly job cancels it.
const StalePendingOrderAge = 30 * 24 * time.Hour

// CancelStaleOrders cancels Pending orders older than the cutoff, cascading
// the cancellation to their non-refunded payments. Orders carrying a
// Successful payment are left alone and logged as inconsistent.
func CancelStaleOrders(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	var orders []model.Order
	if err := database.DB.Preload("Payments").
		Where("status = ? AND created_at < ?", constants.ORDER_PENDING, cutoff).
		Find(&orders).Error; err != nil {
		return 0, err
	}

	canceled := 0
	for _, order := range orders {
		inconsistent := false
		for _, payment := range order.Payments {
			if payment.Status == constants.PAYMENT_SUCCESSFUL {
				inconsistent = true
				break
			}
		}
		if inconsistent {
			log.Printf("[CRON] order %d has a successful payment but is still Pending, skipping", order.ID)
			continue
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
				Update("status", constants.ORDER_CANCELED).Error; err != nil {
				return err
			}
			return tx.Model(&model.Payment{}).
				Where("order_id = ? AND status <> ?", order.ID, constants.PAYMENT_REFUNDED).
				Update("status", constants.PAYMENT_CANCELED).Error
		})
		if err != nil {
			log.Printf("[CRON] failed to cancel stale order %d: %v", order.ID, err)
			continue
		}
		canceled++
	}
	return canceled, nil
}

// DeleteExpiredActivationTokens sweeps activation tokens past their expiry.
// The accounts they pointed at stay inactive; re-registering issues a new one.
func DeleteExpiredActivationTokens() (int64, error) {
	res := database.DB.Where("expires_at < ?", time.Now()).Delete(&model.ActivationToken{})
	return res.RowsAffected, res.Error
}

func runTokenCleanup() {
	n, err := DeleteExpiredActivationTokens()
	if err != nil {
		log.Printf("[CRON] expired token sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CRON] deleted %d expired activation tokens", n)
	}
}

func runOrderCleanup() {
	log.Println("[CRON] stale order cleanup triggered")
	n, err := CancelStaleOrders(StalePendingOrderAge)
	if err != nil {
		log.Printf("[CRON] stale order scan failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CRON] canceled %d stale pending orders", n)
	}
}

func StartCleanupScheduler() {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("failed to create cleanup scheduler: %v", err)
		return
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(3, 0, 0),
			),
		),
		gocron.NewTask(runOrderCleanup),
	)
	if err != nil {
		log.Printf("failed to register order cleanup job: %v", err)
		return
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(3, 30, 0),
			),
		),
		gocron.NewTask(runTokenCleanup),
	)
	if err != nil {
		log.Printf("failed to register token cleanup job: %v", err)
		return
	}

	s.Start()
	cleanupScheduler = s
}

func StopCleanupScheduler() {
	if cleanupScheduler != nil {
		_ = cleanupScheduler.Shutdown()
	}
}
