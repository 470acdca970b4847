package repository

import (
	"strings"

	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderCode(code string) (*models.Order, error)
	GetByOrderCodeAndUser(code string, userID uint) (*models.Order, error)
	GetByPaymentTxRef(txRef string) (*models.Order, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withGraph(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.product_id asc")
	}).Preload("Delivery")
}

// Create 创建订单，Items 与 Delivery 随订单一并写入
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return firstOrNil[models.Order](r.withGraph(r.db), id)
}

// GetByOrderCode 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderCode(code string) (*models.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return firstOrNil[models.Order](r.withGraph(r.db).Where("order_code = ?", code))
}

// GetByOrderCodeAndUser 获取用户自己的订单
func (r *GormOrderRepository) GetByOrderCodeAndUser(code string, userID uint) (*models.Order, error) {
	return firstOrNil[models.Order](r.withGraph(r.db).Where("order_code = ? AND user_id = ?", code, userID))
}

// GetByPaymentTxRef 根据支付交易号获取订单
func (r *GormOrderRepository) GetByPaymentTxRef(txRef string) (*models.Order, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, nil
	}
	return firstOrNil[models.Order](r.withGraph(r.db).Where("payment_tx_ref = ?", txRef))
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return findPage[models.Order](query, filter.Page, filter.PageSize, "id desc", r.withGraph)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if code := strings.TrimSpace(filter.OrderCode); code != "" {
		condition, args := likeCondition(r.db, code, "order_code")
		query = query.Where(condition, args...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.Order](query, filter.Page, filter.PageSize, "id desc", r.withGraph)
}
