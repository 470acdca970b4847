package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表，Total 仅为商品金额，配送费单列
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderCode       string         `gorm:"uniqueIndex;not null" json:"order_code"`                    // 订单编号 ORD-YYYYMMDD-XXXXXX
	UserID          uint           `gorm:"index;not null" json:"user_id"`                             // 下单用户
	CustomerPhone   string         `gorm:"type:varchar(32);not null" json:"customer_phone"`           // 下单时的联系电话
	Total           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total"`        // 商品合计
	DeliveryFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"` // 配送费
	Currency        string         `gorm:"type:varchar(8);not null" json:"currency"`                  // 币种
	DeliveryAddress string         `gorm:"type:text" json:"delivery_address"`                         // 配送地址
	DeliveryLat     float64        `json:"delivery_lat"`                                              // 配送纬度
	DeliveryLng     float64        `json:"delivery_lng"`                                              // 配送经度
	LocationID      uint           `gorm:"index" json:"location_id"`                                  // 命中的配送区域
	Status          string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	PaymentTxRef    *string        `gorm:"uniqueIndex" json:"payment_tx_ref"`                         // 关联支付交易号（每笔支付至多一单）
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                 // 签收时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`    // 订单项
	Delivery *Delivery   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"delivery,omitempty"` // 配送记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// GrandTotal 商品合计加配送费
func (o *Order) GrandTotal() Money {
	return o.Total.Add(o.DeliveryFee)
}
