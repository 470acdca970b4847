package repository

import (
	"strings"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	List(filter UserListFilter) ([]models.User, int64, error)
	ListActiveIDsAfter(afterID uint, limit int) ([]uint, error)
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return firstOrNil[models.User](r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))))
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return firstOrNil[models.User](r.db, id)
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		condition, args := likeCondition(r.db, keyword, "email", "phone", "display_name")
		query = query.Where(condition, args...)
	}

	return findPage[models.User](query, filter.Page, filter.PageSize, "id desc")
}

// ListActiveIDsAfter 按 ID 游标分页获取活跃用户，用于群发
func (r *GormUserRepository) ListActiveIDsAfter(afterID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := r.db.Model(&models.User{}).
		Where("id > ? AND status = ?", afterID, constants.UserStatusActive).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
