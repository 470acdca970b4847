package repository

import (
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
)

// AuthzAuditLogRepository 角色与授权变更的审计流水
type AuthzAuditLogRepository interface {
	Create(log *models.AuthzAuditLog) error
	ListAdmin(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error)
}

type GormAuthzAuditLogRepository struct {
	db *gorm.DB
}

func NewAuthzAuditLogRepository(db *gorm.DB) *GormAuthzAuditLogRepository {
	return &GormAuthzAuditLogRepository{db: db}
}

func (r *GormAuthzAuditLogRepository) Create(log *models.AuthzAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// ListAdmin 按操作人、目标、动作与时间范围过滤，最新在前
func (r *GormAuthzAuditLogRepository) ListAdmin(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	query := r.db.Model(&models.AuthzAuditLog{})
	query = whereEq(query, "operator_admin_id", filter.OperatorAdminID)
	query = whereEq(query, "target_type", filter.TargetType)
	query = whereEq(query, "target_id", filter.TargetID)
	query = whereEq(query, "action", filter.Action)
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return findPage[models.AuthzAuditLog](query, filter.Page, filter.PageSize, "id DESC")
}
