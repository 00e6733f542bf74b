package handler

import (
	"errors"
	"fmt"
	"strings"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/mailer"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// purchasedMovieIds returns the ids of movies already covered by a
// Successful payment of this user.
func purchasedMovieIds(db *gorm.DB, userId uint) (map[uint]bool, error) {
	var ids []uint
	err := db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN payments ON payments.order_id = orders.id").
		Where("payments.user_id = ? AND payments.status = ?", userId, constants.PAYMENT_SUCCESSFUL).
		Distinct().Pluck("order_items.movie_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// pendingMovieIds returns the ids of movies referenced by any of the user's
// Pending orders.
func pendingMovieIds(db *gorm.DB, userId uint) (map[uint]bool, error) {
	var ids []uint
	err := db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", userId, constants.ORDER_PENDING).
		Distinct().Pluck("order_items.movie_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// errNothingToOrder aborts the build transaction when every cart item was
// excluded.
var errNothingToOrder = errors.New("no movies available to order")

// CreateOrder handles POST /orders. It turns the cart's current contents into
// a Pending order with snapshotted prices, skipping movies that are
// unavailable, already purchased or already sitting in another Pending order.
func CreateOrder(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var cart model.Cart
	err := database.DB.Preload("Items.Movie").
		Where("user_id = ?", user.ID).First(&cart).Error
	if err != nil || len(cart.Items) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Your cart is empty.", nil)
	}

	// Exclusion reads and the order write share one transaction so two
	// concurrent builds cannot book the same movie into two Pending orders.
	var order model.Order
	var unavailableNames []string
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		purchased, err := purchasedMovieIds(tx, user.ID)
		if err != nil {
			return err
		}
		pending, err := pendingMovieIds(tx, user.ID)
		if err != nil {
			return err
		}

		var availableItems []model.CartItem
		for _, item := range cart.Items {
			movie := item.Movie
			if !movie.IsAvailable || purchased[movie.ID] || pending[movie.ID] {
				unavailableNames = append(unavailableNames, movie.Name)
				continue
			}
			availableItems = append(availableItems, item)
		}
		if len(availableItems) == 0 {
			return errNothingToOrder
		}

		totalAmount := decimal.Zero
		for _, item := range availableItems {
			totalAmount = totalAmount.Add(item.Movie.Price)
		}

		order = model.Order{
			UserId:      user.ID,
			Status:      constants.ORDER_PENDING,
			TotalAmount: totalAmount,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		consumedIds := make([]uint, 0, len(availableItems))
		for _, item := range availableItems {
			orderItem := model.OrderItem{
				OrderId:      order.ID,
				MovieId:      item.Movie.ID,
				PriceAtOrder: item.Movie.Price,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			consumedIds = append(consumedIds, item.ID)
		}
		// Items that made it into the order leave the cart; excluded ones stay.
		return tx.Where("id IN ?", consumedIds).Delete(&model.CartItem{}).Error
	})

	if len(unavailableNames) > 0 {
		title := "Order update status"
		mailer.Dispatch(mailer.Notification{
			Email:   user.Email,
			Subject: title,
			Title:   title,
			Text: "Some movies from your cart are not available for purchase: " +
				strings.Join(unavailableNames, ", "),
		})
	}

	if errors.Is(err, errNothingToOrder) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No movies available to create an order.", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create order", err)
	}

	var created model.Order
	if err := database.DB.Preload("Items.Movie").First(&created, order.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, created)
}

// ListMyOrders handles GET /orders, newest first.
func ListMyOrders(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var orders []model.Order
	if err := database.DB.Preload("Items.Movie").
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if len(orders) == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "No orders found for this user.", nil)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, orders)
}

// CancelOrder handles DELETE /orders/:orderId.
//
// Only Pending orders may be canceled. Finding a Successful payment on a
// non-paid order is an inconsistency that is surfaced, never repaired.
func CancelOrder(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}
	orderId := c.Locals("inputId").(uint)

	var order model.Order
	if err := database.DB.Preload("Payments").
		Where("id = ? AND user_id = ?", orderId, user.ID).
		First(&order).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Order not found.", nil)
	}

	if order.Status == constants.ORDER_CANCELED {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Order has already been canceled.", nil)
	}
	if order.Status == constants.ORDER_PAID {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Order has already been paid and cannot be canceled. Please request a refund instead.", nil)
	}

	for _, payment := range order.Payments {
		if payment.Status == constants.PAYMENT_SUCCESSFUL {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError,
				"Inconsistent state: a successful payment exists for this non-paid order. Please contact support.",
				fmt.Errorf("order %d carries successful payment %d", order.ID, payment.ID))
		}
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
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel order", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.MessageResponse{
		Message: "Order canceled successfully.",
	})
}

// GetAllOrders handles GET /orders/all (privileged, filterable).
func GetAllOrders(c *fiber.Ctx) error {
	filters := c.Locals("orderFilters").(*model.OrderFilterInput)

	query := database.DB.Preload("Items.Movie").Preload("User")
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

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, orders)
}
