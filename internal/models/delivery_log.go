package models

import "time"

// DeliveryLog 配送流转记录
type DeliveryLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	DeliveryID uint      `gorm:"index;not null" json:"delivery_id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	Event      string    `gorm:"type:varchar(32);not null" json:"event"`
	Actor      string    `gorm:"type:varchar(64)" json:"actor"` // admin:1 / user:5 / customer
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
