package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderConfirmed  OrderStatus = "Confirmed"
	OrderInProgress OrderStatus = "InProgress"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
	OrderFailed     OrderStatus = "Failed"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending: true, OrderConfirmed: true, OrderInProgress: true,
	OrderCompleted: true, OrderCancelled: true, OrderFailed: true,
}

func (s OrderStatus) Valid() bool { return orderStatuses[s] }

type Order struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:uuid;index;not null" json:"userId"`
	User        User        `gorm:"foreignKey:UserID" json:"-"`
	OrderNumber string      `gorm:"size:64;not null" json:"orderNumber"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
	Status      OrderStatus `gorm:"size:32;not null;default:Pending" json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   *time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}
