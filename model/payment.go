package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	DTO
	UserId  uint            `gorm:"not null;index" json:"userId"`
	User    User            `gorm:"foreignKey:UserId" json:"-"`
	OrderId uint            `gorm:"not null;index" json:"orderId"`
	Order   Order           `gorm:"foreignKey:OrderId" json:"-"`
	Status  string          `gorm:"type:varchar(20);not null" json:"status"`
	Amount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	// ExternalPaymentId is the opaque gateway reference; unique so a replayed
	// webhook can never materialize the same charge twice.
	ExternalPaymentId *string       `gorm:"type:varchar(500);uniqueIndex" json:"externalPaymentId"`
	Items             []PaymentItem `gorm:"foreignKey:PaymentId" json:"items"`
}

// PaymentItem snapshots the order item price a second time at payment
// confirmation, independent from the order-time snapshot.
type PaymentItem struct {
	DTO
	PaymentId      uint            `gorm:"not null;index" json:"paymentId"`
	OrderItemId    uint            `gorm:"not null;index" json:"orderItemId"`
	OrderItem      OrderItem       `gorm:"foreignKey:OrderItemId" json:"-"`
	PriceAtPayment decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"priceAtPayment"`
}

type PaymentFilterInput struct {
	UserId    *uint      `query:"user_id"`
	StartDate *time.Time `query:"start_date"`
	EndDate   *time.Time `query:"end_date"`
	Statuses  []string   `query:"statuses" validate:"omitempty,dive,oneof=Successful Canceled Refunded"`
}

type CheckoutUrlResponse struct {
	CheckoutUrl string `json:"checkoutUrl"`
}
