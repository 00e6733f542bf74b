package model

import "time"

type User struct {
	DTO
	Email    string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"type:varchar(20);not null;default:USER" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"isActive"`
}

// ActivationToken is a one-shot token mailed out at registration time.
type ActivationToken struct {
	DTO
	UserId    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserId" json:"-"`
	Token     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}

type ActivateInput struct {
	Token string `json:"token" validate:"required,uuid"`
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
