package validate

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"movie_store/constants"
	"movie_store/model"
	"movie_store/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// GetById parses a numeric path parameter and stashes it in Locals.
func GetById(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		valueKey, err := strconv.Atoi(params)
		if err != nil || valueKey <= 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		c.Locals("inputId", uint(valueKey))
		return c.Next()
	}
}

// Body parses and validates a JSON body into T, stashing it as "input".
func Body[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input T
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Validation failed", err)
		}
		c.Locals("input", &input)
		return c.Next()
	}
}

func parseDateFilters(c *fiber.Ctx) (userId *uint, start, end *time.Time, statuses []string, err error) {
	if raw := c.Query("user_id"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil || id <= 0 {
			return nil, nil, nil, nil, errors.New("user_id must be a positive number")
		}
		userId = utils.Ptr(uint(id))
	}
	if raw := c.Query("start_date"); raw != "" {
		t, convErr := time.Parse(time.RFC3339, raw)
		if convErr != nil {
			return nil, nil, nil, nil, errors.New("start_date must be RFC3339")
		}
		start = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, convErr := time.Parse(time.RFC3339, raw)
		if convErr != nil {
			return nil, nil, nil, nil, errors.New("end_date must be RFC3339")
		}
		end = &t
	}
	if raw := c.Query("statuses"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	return userId, start, end, statuses, nil
}

// OrderFilters validates admin order listing query parameters.
func OrderFilters() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userId, start, end, statuses, err := parseDateFilters(c)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Invalid filters", err)
		}
		input := model.OrderFilterInput{UserId: userId, StartDate: start, EndDate: end, Statuses: statuses}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Invalid filters", err)
		}
		c.Locals("orderFilters", &input)
		return c.Next()
	}
}

// PaymentFilters validates admin payment listing query parameters.
func PaymentFilters() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userId, start, end, statuses, err := parseDateFilters(c)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Invalid filters", err)
		}
		input := model.PaymentFilterInput{UserId: userId, StartDate: start, EndDate: end, Statuses: statuses}
		if err := validate.Struct(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Invalid filters", err)
		}
		c.Locals("paymentFilters", &input)
		return c.Next()
	}
}
