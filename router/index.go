package router

import (
	"movie_store/constants"
	"movie_store/handler"
	"movie_store/middleware"
	"movie_store/model"
	"movie_store/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/register", validate.Body[model.RegisterInput](), handler.Register)
	auth.Post("/activate", validate.Body[model.ActivateInput](), handler.Activate)
	auth.Post("/login", validate.Body[model.LoginInput](), handler.Login)
	auth.Get("/me", middleware.Protected(), handler.Me)

	movie := v1.Group("/movies", logger.New())
	movie.Get("/", handler.GetMovies)
	movie.Post("/", middleware.Protected(), middleware.RequirePermission(constants.PERM_CATALOG_WRITE),
		validate.Body[model.CreateMovieInput](), handler.CreateMovie)
	movie.Get("/:movieId", validate.GetById("movieId"), handler.GetMovieById)
	movie.Patch("/:movieId/availability", middleware.Protected(), middleware.RequirePermission(constants.PERM_CATALOG_WRITE),
		validate.GetById("movieId"), validate.Body[model.SetAvailabilityInput](), handler.SetMovieAvailability)

	cart := v1.Group("/carts", logger.New())
	cart.Post("/movies/:movieId", middleware.Protected(), validate.GetById("movieId"), handler.AddMovieToCart)
	cart.Get("/users", middleware.Protected(), handler.GetMyCart)
	cart.Get("/details", middleware.Protected(), handler.GetCartDetails)
	cart.Get("/all", middleware.Protected(), middleware.RequirePermission(constants.PERM_CARTS_BROWSE_ALL), handler.GetAllCarts)
	cart.Delete("/:movieId", middleware.Protected(), validate.GetById("movieId"), handler.RemoveMovieFromCart)
	cart.Delete("/", middleware.Protected(), handler.ClearCart)

	order := v1.Group("/orders", logger.New())
	order.Post("/", middleware.Protected(), handler.CreateOrder)
	order.Get("/", middleware.Protected(), handler.ListMyOrders)
	order.Get("/all", middleware.Protected(), middleware.RequirePermission(constants.PERM_ORDERS_BROWSE),
		validate.OrderFilters(), handler.GetAllOrders)
	order.Delete("/:orderId", middleware.Protected(), validate.GetById("orderId"), handler.CancelOrder)

	payment := v1.Group("/payments", logger.New())
	payment.Post("/create-checkout-session", middleware.Protected(), handler.CreateCheckoutSession)
	// Webhook is authenticated by its gateway signature, not by a user token.
	payment.Post("/webhook", handler.StripeWebhook)
	payment.Get("/", middleware.Protected(), handler.GetMyPayments)
	payment.Get("/all", middleware.Protected(), middleware.RequirePermission(constants.PERM_PAYMENTS_BROWSE),
		validate.PaymentFilters(), handler.GetAllPayments)
}
