package repository

import (
	"time"

	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	CreateBatch(notifications []models.Notification, batchSize int) error
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	MarkRead(id, userID uint, at time.Time) (int64, error)
	CreateBroadcast(broadcast *models.NotificationBroadcast) error
	GetBroadcast(id uint) (*models.NotificationBroadcast, error)
	UpdateBroadcast(id uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormNotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) *GormNotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// CreateBatch 批量创建通知
func (r *GormNotificationRepository) CreateBatch(notifications []models.Notification, batchSize int) error {
	if len(notifications) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return r.db.CreateInBatches(&notifications, batchSize).Error
}

// List 通知列表
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	return findPage[models.Notification](query, filter.Page, filter.PageSize, "id desc")
}

// MarkRead 标记已读
func (r *GormNotificationRepository) MarkRead(id, userID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

// CreateBroadcast 创建群发任务
func (r *GormNotificationRepository) CreateBroadcast(broadcast *models.NotificationBroadcast) error {
	return r.db.Create(broadcast).Error
}

// GetBroadcast 获取群发任务
func (r *GormNotificationRepository) GetBroadcast(id uint) (*models.NotificationBroadcast, error) {
	return firstOrNil[models.NotificationBroadcast](r.db, id)
}

// UpdateBroadcast 更新群发进度
func (r *GormNotificationRepository) UpdateBroadcast(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.NotificationBroadcast{}).Where("id = ?", id).Updates(updates).Error
}
