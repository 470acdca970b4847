package models

import (
	"time"
)

// Delivery 配送记录，一单一条
type Delivery struct {
	ID               uint       `gorm:"primarykey" json:"id"`                           // 主键
	OrderID          uint       `gorm:"uniqueIndex;not null" json:"order_id"`           // 订单ID
	DeliveryPersonID *uint      `gorm:"index" json:"delivery_person_id"`                // 配送员
	Status           string     `gorm:"type:varchar(20);index;not null" json:"status"`  // 配送状态
	VerificationCode string     `gorm:"type:varchar(16)" json:"-"`                      // 一次性签收码，完成后清空
	FailReason       string     `gorm:"type:varchar(255)" json:"fail_reason,omitempty"` // 失败原因
	AssignedAt       *time.Time `json:"assigned_at"`                                    // 指派时间
	CompletedAt      *time.Time `json:"completed_at"`                                   // 完成时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                     // 更新时间

	Order          *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`                    // 关联订单
	DeliveryPerson *User  `gorm:"foreignKey:DeliveryPersonID" json:"delivery_person,omitempty"` // 关联配送员
}

// TableName 指定表名
func (Delivery) TableName() string {
	return "deliveries"
}
