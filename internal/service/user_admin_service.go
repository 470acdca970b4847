package service

import (
	"context"
	"strings"
	"time"

	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

// UserAdminService 后台用户管理（角色、状态）
type UserAdminService struct {
	userRepo repository.UserRepository
	audit    *AuthzAuditService
}

// NewUserAdminService 创建后台用户管理服务
func NewUserAdminService(userRepo repository.UserRepository, audit *AuthzAuditService) *UserAdminService {
	return &UserAdminService{userRepo: userRepo, audit: audit}
}

// UpdateUserRoleInput 角色变更输入
type UpdateUserRoleInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	UserID           uint
	Role             string
	Status           string
	RequestID        string
}

// List 用户列表
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// UpdateRole 修改用户角色或状态，变更后旧 token 失效
func (s *UserAdminService) UpdateRole(ctx context.Context, input UpdateUserRoleInput) (*models.User, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != constants.UserRoleCustomer && role != constants.UserRoleDelivery {
		return nil, NewValidationError("role", "oneof")
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status != "" && status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, NewValidationError("status", "oneof")
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	previousRole, previousStatus := user.Role, user.Status
	user.Role = role
	if status != "" {
		user.Status = status
	}
	if user.Role == previousRole && user.Status == previousStatus {
		return user, nil
	}
	user.TokenVersion++
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if err := cache.DelUserAuthState(ctx, user.ID); err != nil {
		logger.Warnw("user_auth_state_cache_delete_failed", "user_id", user.ID, "error", err)
	}

	s.audit.Record(AuthzAuditRecordInput{
		OperatorAdminID:  input.OperatorAdminID,
		OperatorUsername: input.OperatorUsername,
		TargetType:       AuditTargetUser,
		TargetID:         user.ID,
		Action:           "user_role_update",
		Role:             user.Role,
		RequestID:        input.RequestID,
		Detail: map[string]interface{}{
			"previous_role":   previousRole,
			"previous_status": previousStatus,
			"status":          user.Status,
		},
	})
	logger.Infow("user_role_updated", "user_id", user.ID, "role", user.Role, "status", user.Status, "admin_id", input.OperatorAdminID)
	return user, nil
}
