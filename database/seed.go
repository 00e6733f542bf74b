package database

import (
	"log"

	"movie_store/constants"
	"movie_store/model"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("changeme-admin"), 10)
	hashPassword := string(bytes)
	if err != nil {
		log.Println("failed to hash seed password:", err)
		return
	}

	users := []model.User{
		{Email: "admin@moviestore.local", Password: hashPassword, Role: constants.ROLE_ADMIN, IsActive: true},
		{Email: "moderator@moviestore.local", Password: hashPassword, Role: constants.ROLE_MODERATOR, IsActive: true},
	}
	for _, user := range users {
		if err := db.Where(model.User{Email: user.Email}).FirstOrCreate(&user).Error; err != nil {
			log.Println("failed to seed user:", user.Email, "error:", err)
		}
	}

	movies := []model.Movie{
		{Name: "The Long Voyage", Year: 2021, Price: decimal.NewFromFloat(9.99), IsAvailable: true},
		{Name: "Winter Light", Year: 2019, Price: decimal.NewFromFloat(5.49), IsAvailable: true},
		{Name: "Paper Cities", Year: 2023, Price: decimal.NewFromFloat(12.00), IsAvailable: true},
	}
	for _, movie := range movies {
		movie.Slug = slug.Make(movie.Name)
		if err := db.Where(model.Movie{Slug: movie.Slug}).FirstOrCreate(&movie).Error; err != nil {
			log.Println("failed to seed movie:", movie.Name, "error:", err)
		}
	}
}
