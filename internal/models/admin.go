package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 后台管理员（调度、财务、客服）
type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`                         // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`         // 登录账号
	DisplayName  string         `gorm:"default:''" json:"display_name"`               // 显示名
	PasswordHash string         `gorm:"not null" json:"-"`                            // 密码哈希
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`                  // Token 版本（改密后递增）
	IsSuper      bool           `gorm:"not null;default:false;index" json:"is_super"` // 超级管理员跳过 RBAC
	LastLoginAt  *time.Time     `json:"last_login_at"`                                // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
