package handler

import (
	"errors"
	"time"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/mailer"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Register handles POST /auth/register.
func Register(c *fiber.Ctx) error {
	input := c.Locals("input").(*model.RegisterInput)

	existing, err := helper.GetUserByEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if existing != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "A user with this email already exists.", nil)
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	// Accounts start inactive and are unlocked by the mailed activation token.
	user := model.User{Email: input.Email, Password: hash, Role: constants.ROLE_USER, IsActive: false}
	token := model.ActivationToken{}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		token = helper.NewActivationToken(user.ID)
		return tx.Create(&token).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "A user with this email already exists.", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	mailer.Dispatch(mailer.Notification{
		Email:   user.Email,
		Subject: "Activate your account",
		Title:   "Welcome to the movie store",
		Text:    "Use this token to activate your account: " + token.Token,
	})

	return utils.SuccessResponse(c, fiber.StatusCreated, model.MessageResponse{
		Message: "Registration successful. Check your email for the activation link.",
	})
}

// Activate handles POST /auth/activate, consuming a one-shot token.
func Activate(c *fiber.Ctx) error {
	input := c.Locals("input").(*model.ActivateInput)

	var token model.ActivationToken
	if err := database.DB.Where("token = ?", input.Token).First(&token).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Invalid activation token.", nil)
	}
	if time.Now().After(token.ExpiresAt) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"Activation token has expired. Please register again.", nil)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", token.UserId).
			Update("is_active", true).Error; err != nil {
			return err
		}
		return tx.Delete(&token).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.MessageResponse{
		Message: "Account activated successfully. You can now log in.",
	})
}

// Login handles POST /auth/login.
func Login(c *fiber.Ctx) error {
	input := c.Locals("input").(*model.LoginInput)

	user, err := helper.GetUserByEmail(input.Email)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if user == nil || !helper.CheckPasswordHash(input.Password, user.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	}
	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Account is not active", nil)
	}

	claim := model.TokenClaim{UserId: user.ID, Email: user.Email}
	accessToken, err := helper.GenerateAccessToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	refreshToken, err := helper.GenerateRefreshToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.TokenData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Me handles GET /auth/me.
func Me(c *fiber.Ctx) error {
	user, ok := helper.CurrentUser(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, user)
}
