package handler

import (
	"errors"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// hasPurchased reports whether a Successful payment of this user already
// covers the movie, walking payment -> payment item -> order item.
func hasPurchased(userId, movieId uint) (bool, error) {
	var count int64
	err := database.DB.Model(&model.Payment{}).
		Joins("JOIN payment_items ON payment_items.payment_id = payments.id").
		Joins("JOIN order_items ON order_items.id = payment_items.order_item_id").
		Where("payments.user_id = ? AND payments.status = ? AND order_items.movie_id = ?",
			userId, constants.PAYMENT_SUCCESSFUL, movieId).
		Count(&count).Error
	return count > 0, err
}

// AddMovieToCart handles POST /carts/movies/:movieId.
func AddMovieToCart(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}
	movieId := c.Locals("inputId").(uint)

	var movie model.Movie
	if err := database.DB.First(&movie, movieId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Movie not found", err)
	}

	purchased, err := hasPurchased(user.ID, movieId)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if purchased {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"You have already purchased this movie. Repeat purchases are not allowed.", nil)
	}

	cart := model.Cart{UserId: user.ID}
	if err := database.DB.Where(model.Cart{UserId: user.ID}).FirstOrCreate(&cart).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var existing model.CartItem
	err = database.DB.Where("cart_id = ? AND movie_id = ?", cart.ID, movieId).First(&existing).Error
	if err == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Movie already in cart.", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	item := model.CartItem{CartId: cart.ID, MovieId: movieId}
	if err := database.DB.Create(&item).Error; err != nil {
		// A concurrent add for the same pair loses to the unique constraint.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Movie already in cart.", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.MessageResponse{
		Message: "Movie added to cart successfully.",
	})
}

// RemoveMovieFromCart handles DELETE /carts/:movieId.
func RemoveMovieFromCart(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}
	movieId := c.Locals("inputId").(uint)

	var cart model.Cart
	if err := database.DB.Where("user_id = ?", user.ID).First(&cart).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Cart not found", err)
	}

	var item model.CartItem
	if err := database.DB.Where("cart_id = ? AND movie_id = ?", cart.ID, movieId).First(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Movie not found in your cart", err)
	}

	if err := database.DB.Delete(&item).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.MessageResponse{
		Message: "Movie removed from cart successfully.",
	})
}

// ClearCart handles DELETE /carts.
func ClearCart(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var cart model.Cart
	err := database.DB.Preload("Items").Where("user_id = ?", user.ID).First(&cart).Error
	if err != nil || len(cart.Items) == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Your cart is already empty.", nil)
	}

	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error
	}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.MessageResponse{
		Message: "Your cart has been cleared successfully.",
	})
}

func moviesInCart(items []model.CartItem) []model.MovieInCart {
	movies := make([]model.MovieInCart, 0, len(items))
	for _, item := range items {
		if item.Movie.ID == 0 {
			continue
		}
		genres := make([]string, 0, len(item.Movie.Genres))
		for _, g := range item.Movie.Genres {
			genres = append(genres, g.Name)
		}
		movies = append(movies, model.MovieInCart{
			ID:          item.Movie.ID,
			Name:        item.Movie.Name,
			Price:       item.Movie.Price,
			Genres:      genres,
			ReleaseYear: item.Movie.Year,
		})
	}
	return movies
}

// GetMyCart handles GET /carts/users.
func GetMyCart(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var cart model.Cart
	if err := database.DB.Preload("Items.Movie.Genres").
		Where("user_id = ?", user.ID).First(&cart).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Cart not found", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.CartResponse{
		Movies: moviesInCart(cart.Items),
	})
}

// GetCartDetails handles GET /carts/details.
func GetCartDetails(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}

	var cart model.Cart
	err := database.DB.Preload("Items.Movie.Genres").
		Where("user_id = ?", user.ID).First(&cart).Error
	if err != nil || len(cart.Items) == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Your cart is empty.", nil)
	}

	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(item.Movie.Price)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.CartDetailResponse{
		Movies:     moviesInCart(cart.Items),
		TotalPrice: total,
	})
}

// GetAllCarts handles GET /carts/all (privileged). Empty carts are skipped;
// created_at is the earliest add in each cart.
func GetAllCarts(c *fiber.Ctx) error {
	var carts []model.Cart
	if err := database.DB.Preload("Items").Preload("User").Find(&carts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	result := make([]model.AdminCartRow, 0, len(carts))
	for _, cart := range carts {
		if len(cart.Items) == 0 {
			continue
		}
		earliest := cart.Items[0].CreatedAt
		for _, item := range cart.Items[1:] {
			if item.CreatedAt.Before(earliest) {
				earliest = item.CreatedAt
			}
		}
		result = append(result, model.AdminCartRow{
			ID:         cart.ID,
			UserEmail:  cart.User.Email,
			ItemsCount: int64(len(cart.Items)),
			CreatedAt:  &earliest,
		})
	}

	return utils.SuccessResponse(c, fiber.StatusOK, result)
}
