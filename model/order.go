package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	DTO
	UserId      uint            `gorm:"not null;index" json:"userId"`
	User        User            `gorm:"foreignKey:UserId" json:"-"`
	Status      string          `gorm:"type:varchar(20);not null" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2)" json:"totalAmount"`
	Items       []OrderItem     `gorm:"foreignKey:OrderId" json:"items"`
	Payments    []Payment       `gorm:"foreignKey:OrderId" json:"-"`
}

type OrderItem struct {
	DTO
	OrderId uint  `gorm:"not null;index" json:"orderId"`
	MovieId uint  `gorm:"not null;index" json:"movieId"`
	Movie   Movie `gorm:"foreignKey:MovieId" json:"movie"`
	// PriceAtOrder is snapshotted at order build time and never recomputed.
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"priceAtOrder"`
}

type OrderFilterInput struct {
	UserId    *uint      `query:"user_id"`
	StartDate *time.Time `query:"start_date"`
	EndDate   *time.Time `query:"end_date"`
	Statuses  []string   `query:"statuses" validate:"omitempty,dive,oneof=Pending Paid Canceled"`
}
