package models

import "time"

// Notification 站内通知
type Notification struct {
	ID        uint       `gorm:"primarykey" json:"id"`                                     // 主键
	UserID    uint       `gorm:"index:idx_notification_user_read;not null" json:"user_id"` // 接收用户
	Type      string     `gorm:"type:varchar(32);not null" json:"type"`                    // 通知类型
	Title     string     `gorm:"not null" json:"title"`                                    // 标题
	Body      string     `gorm:"type:text" json:"body"`                                    // 正文
	Ref       string     `gorm:"type:varchar(64);index" json:"ref"`                        // 关联业务编号
	ReadAt    *time.Time `gorm:"index:idx_notification_user_read" json:"read_at"`          // 已读时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

// NotificationBroadcast 全员群发任务，按用户 ID 游标分批投递
type NotificationBroadcast struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	Title            string     `gorm:"not null" json:"title"`
	Body             string     `gorm:"type:text" json:"body"`
	Status           string     `gorm:"type:varchar(20);index;not null" json:"status"`
	CursorUserID     uint       `gorm:"not null;default:0" json:"cursor_user_id"`
	DeliveredCount   int64      `gorm:"not null;default:0" json:"delivered_count"`
	CreatedByAdminID uint       `gorm:"index" json:"created_by_admin_id"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (NotificationBroadcast) TableName() string {
	return "notification_broadcasts"
}
