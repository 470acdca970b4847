package service

import (
	"strings"
	"time"

	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"gorm.io/datatypes"
)

// 审计目标类型
const (
	AuditTargetAdmin = "admin"
	AuditTargetUser  = "user"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	TargetType       string
	TargetID         uint
	Action           string
	Role             string
	RequestID        string
	Detail           map[string]interface{}
}

// AuthzAuditService 权限审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo}
}

// Record 记录权限审计日志，失败只记日志不影响主流程
func (s *AuthzAuditService) Record(input AuthzAuditRecordInput) {
	if s == nil || s.repo == nil {
		return
	}
	if input.OperatorAdminID == 0 || strings.TrimSpace(input.Action) == "" {
		return
	}
	item := &models.AuthzAuditLog{
		OperatorAdminID:  input.OperatorAdminID,
		OperatorUsername: strings.TrimSpace(input.OperatorUsername),
		TargetType:       strings.TrimSpace(input.TargetType),
		TargetID:         input.TargetID,
		Action:           strings.TrimSpace(input.Action),
		Role:             strings.TrimSpace(input.Role),
		RequestID:        strings.TrimSpace(input.RequestID),
		Detail:           datatypes.JSONMap(input.Detail),
		CreatedAt:        time.Now(),
	}
	if err := s.repo.Create(item); err != nil {
		logger.Warnw("authz_audit_record_failed", "action", item.Action, "operator_admin_id", item.OperatorAdminID, "error", err)
	}
}

// ListForAdmin 管理端查询权限审计日志
func (s *AuthzAuditService) ListForAdmin(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.ListAdmin(filter)
}
