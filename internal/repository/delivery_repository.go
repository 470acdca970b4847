package repository

import (
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryRepository 配送数据访问接口
type DeliveryRepository interface {
	GetByID(id uint) (*models.Delivery, error)
	GetByOrderID(orderID uint) (*models.Delivery, error)
	LockByID(id uint) (*models.Delivery, error)
	LockByOrderID(orderID uint) (*models.Delivery, error)
	Update(delivery *models.Delivery) error
	List(filter DeliveryListFilter) ([]models.Delivery, int64, error)
	AppendLog(entry *models.DeliveryLog) error
	ListLogs(deliveryID uint) ([]models.DeliveryLog, error)
	WithTx(tx *gorm.DB) *GormDeliveryRepository
}

// GormDeliveryRepository GORM 实现
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository 创建配送仓库
func NewDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDeliveryRepository) WithTx(tx *gorm.DB) *GormDeliveryRepository {
	if tx == nil {
		return r
	}
	return &GormDeliveryRepository{db: tx}
}

func (r *GormDeliveryRepository) first(query *gorm.DB) (*models.Delivery, error) {
	return firstOrNil[models.Delivery](query)
}

// GetByID 根据 ID 获取配送记录（含订单）
func (r *GormDeliveryRepository) GetByID(id uint) (*models.Delivery, error) {
	return r.first(r.db.Preload("Order").Preload("DeliveryPerson").Where("id = ?", id))
}

// GetByOrderID 根据订单获取配送记录
func (r *GormDeliveryRepository) GetByOrderID(orderID uint) (*models.Delivery, error) {
	return r.first(r.db.Where("order_id = ?", orderID))
}

// LockByID 行锁读取配送记录
func (r *GormDeliveryRepository) LockByID(id uint) (*models.Delivery, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// LockByOrderID 行锁读取订单的配送记录
func (r *GormDeliveryRepository) LockByOrderID(orderID uint) (*models.Delivery, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID))
}

// Update 更新配送记录
func (r *GormDeliveryRepository) Update(delivery *models.Delivery) error {
	return r.db.Omit(clause.Associations).Save(delivery).Error
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Order")
}

// List 配送列表
func (r *GormDeliveryRepository) List(filter DeliveryListFilter) ([]models.Delivery, int64, error) {
	query := r.db.Model(&models.Delivery{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DeliveryPersonID != 0 {
		query = query.Where("delivery_person_id = ?", filter.DeliveryPersonID)
	}
	return findPage[models.Delivery](query, filter.Page, filter.PageSize, "id desc", preloadOrder)
}

// AppendLog 写入配送流转记录
func (r *GormDeliveryRepository) AppendLog(entry *models.DeliveryLog) error {
	return r.db.Create(entry).Error
}

// ListLogs 获取配送流转记录
func (r *GormDeliveryRepository) ListLogs(deliveryID uint) ([]models.DeliveryLog, error) {
	var logs []models.DeliveryLog
	if err := r.db.Where("delivery_id = ?", deliveryID).Order("id asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
