package helper_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/model"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbCounter int
var dbCounterMu sync.Mutex

func setupDB(t *testing.T) {
	t.Helper()

	dbCounterMu.Lock()
	dbCounter++
	dsn := fmt.Sprintf("file:cleanup_test_%d?mode=memory&cache=shared", dbCounter)
	dbCounterMu.Unlock()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	database.DB = db
	database.Migrate(db)
}

func seedOrder(t *testing.T, userId uint, status string, age time.Duration) model.Order {
	t.Helper()
	order := model.Order{UserId: userId, Status: status, TotalAmount: decimal.NewFromInt(10)}
	order.CreatedAt = time.Now().Add(-age)
	require.NoError(t, database.DB.Create(&order).Error)
	return order
}

func TestCancelStaleOrders(t *testing.T) {
	t.Run("cancels_old_pending_orders_with_payment_cascade", func(t *testing.T) {
		setupDB(t)
		user := model.User{Email: "user@example.com", Password: "x", Role: constants.ROLE_USER, IsActive: true}
		require.NoError(t, database.DB.Create(&user).Error)

		stale := seedOrder(t, user.ID, constants.ORDER_PENDING, 40*24*time.Hour)
		fresh := seedOrder(t, user.ID, constants.ORDER_PENDING, 24*time.Hour)
		canceledPayment := model.Payment{
			UserId: user.ID, OrderId: stale.ID,
			Status: constants.PAYMENT_CANCELED, Amount: stale.TotalAmount,
		}
		require.NoError(t, database.DB.Create(&canceledPayment).Error)
		refunded := model.Payment{
			UserId: user.ID, OrderId: stale.ID,
			Status: constants.PAYMENT_REFUNDED, Amount: stale.TotalAmount,
		}
		require.NoError(t, database.DB.Create(&refunded).Error)

		n, err := helper.CancelStaleOrders(helper.StalePendingOrderAge)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, database.DB.First(&stale, stale.ID).Error)
		assert.Equal(t, constants.ORDER_CANCELED, stale.Status)
		require.NoError(t, database.DB.First(&fresh, fresh.ID).Error)
		assert.Equal(t, constants.ORDER_PENDING, fresh.Status, "recent orders are untouched")

		require.NoError(t, database.DB.First(&canceledPayment, canceledPayment.ID).Error)
		assert.Equal(t, constants.PAYMENT_CANCELED, canceledPayment.Status)
		require.NoError(t, database.DB.First(&refunded, refunded.ID).Error)
		assert.Equal(t, constants.PAYMENT_REFUNDED, refunded.Status, "refunds are never rewritten")
	})

	t.Run("skips_pending_order_with_successful_payment", func(t *testing.T) {
		setupDB(t)
		user := model.User{Email: "user@example.com", Password: "x", Role: constants.ROLE_USER, IsActive: true}
		require.NoError(t, database.DB.Create(&user).Error)

		inconsistent := seedOrder(t, user.ID, constants.ORDER_PENDING, 40*24*time.Hour)
		payment := model.Payment{
			UserId: user.ID, OrderId: inconsistent.ID,
			Status: constants.PAYMENT_SUCCESSFUL, Amount: inconsistent.TotalAmount,
		}
		require.NoError(t, database.DB.Create(&payment).Error)

		n, err := helper.CancelStaleOrders(helper.StalePendingOrderAge)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, database.DB.First(&inconsistent, inconsistent.ID).Error)
		assert.Equal(t, constants.ORDER_PENDING, inconsistent.Status)
		require.NoError(t, database.DB.First(&payment, payment.ID).Error)
		assert.Equal(t, constants.PAYMENT_SUCCESSFUL, payment.Status)
	})

	t.Run("sweeps_expired_activation_tokens", func(t *testing.T) {
		setupDB(t)
		user := model.User{Email: "user@example.com", Password: "x", Role: constants.ROLE_USER, IsActive: false}
		require.NoError(t, database.DB.Create(&user).Error)

		expired := helper.NewActivationToken(user.ID)
		expired.ExpiresAt = time.Now().Add(-time.Hour)
		require.NoError(t, database.DB.Create(&expired).Error)
		fresh := helper.NewActivationToken(user.ID)
		require.NoError(t, database.DB.Create(&fresh).Error)

		n, err := helper.DeleteExpiredActivationTokens()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		var count int64
		database.DB.Model(&model.ActivationToken{}).Count(&count)
		assert.Equal(t, int64(1), count)
		require.NoError(t, database.DB.First(&fresh, fresh.ID).Error)
	})

	t.Run("ignores_canceled_and_paid_orders", func(t *testing.T) {
		setupDB(t)
		user := model.User{Email: "user@example.com", Password: "x", Role: constants.ROLE_USER, IsActive: true}
		require.NoError(t, database.DB.Create(&user).Error)

		paid := seedOrder(t, user.ID, constants.ORDER_PAID, 40*24*time.Hour)
		canceled := seedOrder(t, user.ID, constants.ORDER_CANCELED, 40*24*time.Hour)

		n, err := helper.CancelStaleOrders(helper.StalePendingOrderAge)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, database.DB.First(&paid, paid.ID).Error)
		assert.Equal(t, constants.ORDER_PAID, paid.Status)
		require.NoError(t, database.DB.First(&canceled, canceled.ID).Error)
		assert.Equal(t, constants.ORDER_CANCELED, canceled.Status)
	})
}
