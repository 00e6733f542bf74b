package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is created lazily on the first add, one row per user.
type Cart struct {
	DTO
	UserId uint       `gorm:"not null;uniqueIndex" json:"userId"`
	User   User       `gorm:"foreignKey:UserId" json:"-"`
	Items  []CartItem `gorm:"foreignKey:CartId" json:"items"`
}

type CartItem struct {
	DTO
	CartId  uint  `gorm:"not null;uniqueIndex:idx_cart_item_pair" json:"cartId"`
	MovieId uint  `gorm:"not null;uniqueIndex:idx_cart_item_pair" json:"movieId"`
	Movie   Movie `gorm:"foreignKey:MovieId" json:"movie"`
}

type CartResponse struct {
	Movies []MovieInCart `json:"movies"`
}

type CartDetailResponse struct {
	Movies     []MovieInCart   `json:"movies"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// AdminCartRow is the aggregated per-cart summary for the privileged listing.
type AdminCartRow struct {
	ID         uint       `json:"id"`
	UserEmail  string     `json:"userEmail"`
	ItemsCount int64      `json:"itemsCount"`
	CreatedAt  *time.Time `json:"createdAt"`
}
