package middleware

import (
	"errors"
	"strings"

	"movie_store/constants"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// rolePermissions is a flat role-to-permission lookup, no inheritance.
var rolePermissions = map[string][]string{
	constants.ROLE_USER: {},
	constants.ROLE_MODERATOR: {
		constants.PERM_CATALOG_WRITE,
		constants.PERM_CARTS_BROWSE_ALL,
	},
	constants.ROLE_ADMIN: {
		constants.PERM_CATALOG_WRITE,
		constants.PERM_CARTS_BROWSE_ALL,
		constants.PERM_ORDERS_BROWSE,
		constants.PERM_PAYMENTS_BROWSE,
	},
}

// Protected parses the JWT, loads the principal and stores it in Locals.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(token)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		claims, ok := jwtToken.Claims.(jwt.MapClaims)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", nil)
		}
		userIdFloat, ok := claims["userId"].(float64)
		if !ok || userIdFloat == 0 {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", nil)
		}

		var user model.User
		if err := database.DB.First(&user, uint(userIdFloat)).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Account does not exist", err)
		}
		if !user.IsActive {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Account is not active", nil)
		}

		c.Locals("authUser", &user)
		return c.Next()
	}
}

// RequirePermission gates privileged routes behind the role lookup above.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := helper.CurrentUser(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", nil)
		}
		for _, p := range rolePermissions[user.Role] {
			if p == permission {
				return c.Next()
			}
		}
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", nil)
	}
}
