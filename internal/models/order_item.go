package models

import (
	"time"
)

// OrderItem 订单项，价格与数量取自快照
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                          // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`                        // 商品ID
	ProductName string    `gorm:"not null" json:"product_name"`                            // 商品名称快照
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价
	Quantity    int       `gorm:"not null" json:"quantity"`                                // 数量
	LineTotal   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"` // 小计
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
