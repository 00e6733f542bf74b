package handler

import (
	"movie_store/constants"
	"movie_store/database"
	"movie_store/model"
	"movie_store/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
)

// GetMovies handles GET /movies.
func GetMovies(c *fiber.Ctx) error {
	var pagination model.Pagination
	if err := c.QueryParser(&pagination); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", err)
	}

	query := database.DB.Preload("Genres").Order("name")
	query = utils.ApplyPagination(query, pagination.Limit, pagination.Page)

	var movies []model.Movie
	if err := query.Find(&movies).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, movies)
}

// GetMovieById handles GET /movies/:movieId.
func GetMovieById(c *fiber.Ctx) error {
	movieId := c.Locals("inputId").(uint)

	var movie model.Movie
	if err := database.DB.Preload("Genres").First(&movie, movieId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Movie not found", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, movie)
}

// CreateMovie handles POST /movies (moderator).
func CreateMovie(c *fiber.Ctx) error {
	input := c.Locals("input").(*model.CreateMovieInput)

	var movie model.Movie
	copier.Copy(&movie, input)
	movie.Slug = slug.Make(input.Name)
	if input.IsAvailable != nil {
		movie.IsAvailable = *input.IsAvailable
	} else {
		movie.IsAvailable = true
	}

	movie.Genres = nil
	for _, name := range input.Genres {
		genre := model.Genre{Name: name}
		if err := database.DB.Where(model.Genre{Name: name}).FirstOrCreate(&genre).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		movie.Genres = append(movie.Genres, genre)
	}

	if err := database.DB.Create(&movie).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create movie", err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, movie)
}

// SetMovieAvailability handles PATCH /movies/:movieId/availability (moderator).
func SetMovieAvailability(c *fiber.Ctx) error {
	movieId := c.Locals("inputId").(uint)
	input := c.Locals("input").(*model.SetAvailabilityInput)

	var movie model.Movie
	if err := database.DB.First(&movie, movieId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Movie not found", err)
	}

	if err := database.DB.Model(&movie).Update("is_available", *input.IsAvailable).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, movie)
}
