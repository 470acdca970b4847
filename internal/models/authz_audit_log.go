package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuthzAuditLog 后台权限与账号角色变更审计
type AuthzAuditLog struct {
	ID               uint              `gorm:"primarykey" json:"id"`
	OperatorAdminID  uint              `gorm:"index;not null" json:"operator_admin_id"`
	OperatorUsername string            `gorm:"type:varchar(100);index;not null;default:''" json:"operator_username"`
	TargetType       string            `gorm:"type:varchar(20);index;not null;default:''" json:"target_type"` // admin / user
	TargetID         uint              `gorm:"index" json:"target_id"`
	Action           string            `gorm:"type:varchar(100);index;not null" json:"action"`
	Role             string            `gorm:"type:varchar(120);index;not null;default:''" json:"role"`
	RequestID        string            `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	Detail           datatypes.JSONMap `gorm:"type:json" json:"detail"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}
