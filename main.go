package main

import (
	"log"

	"movie_store/config"
	"movie_store/database"
	"movie_store/helper"
	"movie_store/mailer"
	"movie_store/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.Config("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Stripe-Signature",
		AllowCredentials: true,
		MaxAge:           600,
	}))

	database.ConnectDB()

	mailer.Init()
	mailer.StartWorker()

	helper.StartCleanupScheduler()
	defer helper.StopCleanupScheduler()

	router.SetupRoutes(app)

	port := config.Config("APP_PORT")
	if port == "" {
		port = "8002"
	}
	log.Fatal(app.Listen(":" + port))
}
