package handler_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/model"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signPayload produces a Stripe-Signature header value for the test webhook
// secret, the same scheme the gateway verifies.
func signPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, app *fiber.App, payload, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// seedPendingOrder persists a Pending order with one item per movie, prices
// snapshotted from the catalog.
func seedPendingOrder(t *testing.T, user model.User, movies ...model.Movie) model.Order {
	t.Helper()
	total := decimal.Zero
	for _, m := range movies {
		total = total.Add(m.Price)
	}
	order := model.Order{UserId: user.ID, Status: constants.ORDER_PENDING, TotalAmount: total}
	require.NoError(t, database.DB.Create(&order).Error)
	for _, m := range movies {
		item := model.OrderItem{OrderId: order.ID, MovieId: m.ID, PriceAtOrder: m.Price}
		require.NoError(t, database.DB.Create(&item).Error)
	}
	return order
}

func TestCreateCheckoutSessionPreconditions(t *testing.T) {
	app, _ := setupApp(t)
	user := seedUser(t, "user@example.com", constants.ROLE_USER)
	auth := authHeader(t, user)

	t.Run("order_id_must_be_numeric", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/v1/payments/create-checkout-session?order_id=abc", auth, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing_order", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/v1/payments/create-checkout-session?order_id=9999", auth, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign_order_looks_missing", func(t *testing.T) {
		owner := seedUser(t, "owner@example.com", constants.ROLE_USER)
		movie := seedMovie(t, "The Long Voyage", 5.00, true)
		order := seedPendingOrder(t, owner, movie)

		resp := doRequest(t, app, http.MethodPost,
			fmt.Sprintf("/api/v1/payments/create-checkout-session?order_id=%d", order.ID), auth, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "Order not found.", body["message"])
	})

	t.Run("processed_order_is_rejected", func(t *testing.T) {
		paid := model.Order{UserId: user.ID, Status: constants.ORDER_PAID, TotalAmount: decimal.NewFromInt(5)}
		require.NoError(t, database.DB.Create(&paid).Error)

		resp := doRequest(t, app, http.MethodPost,
			fmt.Sprintf("/api/v1/payments/create-checkout-session?order_id=%d", paid.ID), auth, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestStripeWebhook(t *testing.T) {
	const secret = "whsec_test"

	t.Run("rejects_bad_signature", func(t *testing.T) {
		app, _ := setupApp(t)
		payload := `{"type":"checkout.session.completed","data":{"object":{}}}`

		resp := postWebhook(t, app, payload, "t=1,v1=deadbeef")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = postWebhook(t, app, payload, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("checkout_completed_marks_order_paid", func(t *testing.T) {
		app, rec := setupApp(t)
		user := seedUser(t, "user@example.com", constants.ROLE_USER)
		m1 := seedMovie(t, "The Long Voyage", 5.00, true)
		m2 := seedMovie(t, "Winter Light", 7.00, true)
		order := seedPendingOrder(t, user, m1, m2)

		payload := fmt.Sprintf(`{
			"id": "evt_1",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"payment_intent": {"id": "pi_123"},
				"metadata": {"order_id": "%d", "user_id": "%d"}
			}}
		}`, order.ID, user.ID)

		resp := postWebhook(t, app, payload, signPayload(t, []byte(payload), secret))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "success", body["status"])

		require.NoError(t, database.DB.First(&order, order.ID).Error)
		assert.Equal(t, constants.ORDER_PAID, order.Status)

		var payment model.Payment
		require.NoError(t, database.DB.Preload("Items").Where("order_id = ?", order.ID).First(&payment).Error)
		assert.Equal(t, constants.PAYMENT_SUCCESSFUL, payment.Status)
		assert.True(t, payment.Amount.Equal(decimal.NewFromFloat(12.00)),
			"payment amount %s should equal order total", payment.Amount)
		require.NotNil(t, payment.ExternalPaymentId)
		assert.Equal(t, "pi_123", *payment.ExternalPaymentId)
		require.Len(t, payment.Items, 2)
		for _, item := range payment.Items {
			var orderItem model.OrderItem
			require.NoError(t, database.DB.First(&orderItem, item.OrderItemId).Error)
			assert.True(t, item.PriceAtPayment.Equal(orderItem.PriceAtOrder))
		}

		require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
		assert.Equal(t, user.Email, rec.last().Email)
		assert.Contains(t, rec.last().Text, "successfully processed")

		// A replayed delivery is acknowledged without a second payment.
		resp = postWebhook(t, app, payload, signPayload(t, []byte(payload), secret))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		database.DB.Model(&model.Payment{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Equal(t, int64(1), count)
		require.NoError(t, database.DB.First(&order, order.ID).Error)
		assert.Equal(t, constants.ORDER_PAID, order.Status)

		// A late delivery with a different payment-intent id for the same
		// order is acknowledged too; the first payment stands.
		latePayload := fmt.Sprintf(`{
			"id": "evt_1b",
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_test_2",
				"object": "checkout.session",
				"payment_intent": {"id": "pi_456"},
				"metadata": {"order_id": "%d", "user_id": "%d"}
			}}
		}`, order.ID, user.ID)
		resp = postWebhook(t, app, latePayload, signPayload(t, []byte(latePayload), secret))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		database.DB.Model(&model.Payment{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Equal(t, int64(1), count)
		require.NoError(t, database.DB.Preload("Items").Where("order_id = ?", order.ID).First(&payment).Error)
		assert.Equal(t, "pi_123", *payment.ExternalPaymentId)
	})

	t.Run("charge_failed_keeps_order_pending", func(t *testing.T) {
		app, rec := setupApp(t)
		user := seedUser(t, "user@example.com", constants.ROLE_USER)
		movie := seedMovie(t, "Paper Cities", 12.00, true)
		order := seedPendingOrder(t, user, movie)

		payload := fmt.Sprintf(`{
			"id": "evt_2",
			"type": "charge.failed",
			"data": {"object": {
				"id": "ch_1",
				"object": "charge",
				"metadata": {"order_id": "%d", "user_id": "%d"}
			}}
		}`, order.ID, user.ID)

		resp := postWebhook(t, app, payload, signPayload(t, []byte(payload), secret))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "fail", body["status"])

		require.NoError(t, database.DB.First(&order, order.ID).Error)
		assert.Equal(t, constants.ORDER_PENDING, order.Status)

		var count int64
		database.DB.Model(&model.Payment{}).Count(&count)
		assert.Equal(t, int64(0), count, "a failed charge records no payment")

		require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
		assert.Contains(t, rec.last().Text, "unsuccessful")
		assert.Contains(t, rec.last().Text, "Paper Cities")
	})
}

func TestPaymentHistory(t *testing.T) {
	app, _ := setupApp(t)
	user := seedUser(t, "user@example.com", constants.ROLE_USER)
	other := seedUser(t, "other@example.com", constants.ROLE_USER)
	admin := seedUser(t, "admin@example.com", constants.ROLE_ADMIN)

	movie := seedMovie(t, "The Long Voyage", 5.00, true)
	seedPaidPurchase(t, user, movie)
	otherOrder := model.Order{UserId: other.ID, Status: constants.ORDER_PENDING, TotalAmount: decimal.NewFromInt(7)}
	require.NoError(t, database.DB.Create(&otherOrder).Error)
	require.NoError(t, database.DB.Create(&model.Payment{
		UserId: other.ID, OrderId: otherOrder.ID,
		Status: constants.PAYMENT_CANCELED, Amount: otherOrder.TotalAmount,
	}).Error)

	t.Run("own_payments_only", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/v1/payments", authHeader(t, user), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []model.Payment `json:"data"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, constants.PAYMENT_SUCCESSFUL, body.Data[0].Status)
		require.Len(t, body.Data[0].Items, 1)
	})

	t.Run("admin_filters_by_status", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/v1/payments/all?statuses=Canceled", authHeader(t, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []model.Payment `json:"data"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, other.ID, body.Data[0].UserId)
	})

	t.Run("admin_listing_forbidden_for_user", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/v1/payments/all", authHeader(t, user), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
