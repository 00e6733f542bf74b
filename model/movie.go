package model

import "github.com/shopspring/decimal"

type Movie struct {
	DTO
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Slug        string          `gorm:"uniqueIndex" json:"slug"`
	Year        int             `gorm:"not null" json:"year"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable bool            `gorm:"not null;default:true" json:"isAvailable"`
	Genres      []Genre         `gorm:"many2many:movie_genres" json:"genres"`
}

type Genre struct {
	DTO
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

type CreateMovieInput struct {
	Name        string          `json:"name" validate:"required,min=1,max=255"`
	Year        int             `json:"year" validate:"required,gte=1888"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	IsAvailable *bool           `json:"isAvailable"`
	Genres      []string        `json:"genres" validate:"omitempty,dive,required"`
}

type SetAvailabilityInput struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

// MovieInCart is the catalog view used by cart responses.
type MovieInCart struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Genres      []string        `json:"genres"`
	ReleaseYear int             `json:"releaseYear"`
}
