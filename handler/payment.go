package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/mailer"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"
)

// CreateCheckoutSession handles POST /payments/create-checkout-session?order_id=.
func CreateCheckoutSession(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	orderId, err := strconv.Atoi(c.Query("order_id"))
	if err != nil || orderId <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
	}

	var order model.Order
	if err := database.DB.Preload("Items.Movie").First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found.", nil)
	}
	// Same message for a foreign order so existence is not leaked.
	if order.UserId != user.ID {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found.", nil)
	}
	if order.Status != constants.ORDER_PENDING {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order already processed.", nil)
	}

	gateway := NewStripeGateway()
	url, err := gateway.CreateCheckoutSession(order)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create checkout session", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.CheckoutUrlResponse{CheckoutUrl: url})
}

func orderItemsSummary(items []model.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("Movie %s with price %s", item.Movie.Name, item.PriceAtOrder))
	}
	return strings.Join(parts, ", ")
}

func handleChargeFailed(event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}
	orderId, err := strconv.Atoi(charge.Metadata["order_id"])
	if err != nil {
		return fmt.Errorf("bad order_id in metadata: %w", err)
	}
	userId, err := strconv.Atoi(charge.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("bad user_id in metadata: %w", err)
	}

	var user model.User
	if err := database.DB.First(&user, userId).Error; err != nil {
		return err
	}
	var order model.Order
	if err := database.DB.Preload("Items.Movie").First(&order, orderId).Error; err != nil {
		return err
	}

	// The order stays Pending; the user decides whether to retry or cancel.
	mailer.Dispatch(mailer.Notification{
		Email:   user.Email,
		Subject: "Payment status update",
		Title:   "Unsuccessful payment",
		Text: fmt.Sprintf("Your payment for %s with total sum: %s was unsuccessful. "+
			"Please try again later or change payment method",
			orderItemsSummary(order.Items), order.TotalAmount),
	})
	return nil
}

// errAlreadyRecorded acknowledges a delivery that lost the race to record the
// payment.
var errAlreadyRecorded = errors.New("order already left Pending")

func handleCheckoutCompleted(c *fiber.Ctx, event stripe.Event) error {
	var checkoutSession stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Webhook error", err)
	}
	orderId, err := strconv.Atoi(checkoutSession.Metadata["order_id"])
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Webhook error", err)
	}
	var externalPaymentId *string
	if checkoutSession.PaymentIntent != nil {
		externalPaymentId = utils.Ptr(checkoutSession.PaymentIntent.ID)
	}

	var order model.Order
	if err := database.DB.Preload("Items.Movie").First(&order, orderId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found.", err)
	}

	// Replay guard: only a Pending order transitions, a second delivery of
	// the same event is acknowledged without writing anything.
	if order.Status != constants.ORDER_PENDING {
		return c.JSON(fiber.Map{"status": "success"})
	}

	payment := model.Payment{
		UserId:            order.UserId,
		OrderId:           order.ID,
		Status:            constants.PAYMENT_SUCCESSFUL,
		Amount:            order.TotalAmount,
		ExternalPaymentId: externalPaymentId,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// A concurrent event may have moved the order off Pending after the
		// read above; zero affected rows means someone else recorded it.
		res := tx.Model(&model.Order{}).Where("id = ? AND status = ?", order.ID, constants.ORDER_PENDING).
			Update("status", constants.ORDER_PAID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyRecorded
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			paymentItem := model.PaymentItem{
				PaymentId:      payment.ID,
				OrderItemId:    item.ID,
				PriceAtPayment: item.PriceAtOrder,
			}
			if err := tx.Create(&paymentItem).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyRecorded) {
		return c.JSON(fiber.Map{"status": "success"})
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record payment", err)
	}

	var user model.User
	if err := database.DB.First(&user, order.UserId).Error; err == nil {
		mailer.Dispatch(mailer.Notification{
			Email:   user.Email,
			Subject: "Payment status update",
			Title:   "Payment status update",
			Text: fmt.Sprintf("Your payment for sum %s has been successfully processed. %s",
				order.TotalAmount, orderItemsSummary(order.Items)),
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// StripeWebhook handles POST /payments/webhook, the gateway's signed events.
func StripeWebhook(c *fiber.Ctx) error {
	gateway := NewStripeGateway()

	event, err := gateway.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Webhook error", err)
	}

	switch string(event.Type) {
	case "charge.failed":
		if err := handleChargeFailed(event); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Webhook error", err)
		}
		return c.JSON(fiber.Map{"status": "fail"})
	case "checkout.session.completed":
		return handleCheckoutCompleted(c, event)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// GetMyPayments handles GET /payments, newest first.
func GetMyPayments(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var payments []model.Payment
	if err := database.DB.Preload("Items").
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&payments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, payments)
}

// GetAllPayments handles GET /payments/all (privileged, filterable).
func GetAllPayments(c *fiber.Ctx) error {
	filters := c.Locals("paymentFilters").(*model.PaymentFilterInput)

	query := database.DB.Preload("Items")
	if filters.UserId != nil {
		query = query.Where("user_id = ?", *filters.UserId)
	}
	if filters.StartDate != nil {
		query = query.Where("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("created_at <= ?", *filters.EndDate)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}

	var payments []model.Payment
	if err := query.Find(&payments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, payments)
}
