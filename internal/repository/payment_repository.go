package repository

import (
	"strings"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository 支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	UpdateColumns(id uint, columns map[string]interface{}) error
	GetByID(id uint) (*models.Payment, error)
	GetByTxRef(txRef string) (*models.Payment, error)
	LockByID(id uint) (*models.Payment, error)
	ListAdmin(filter PaymentListFilter) ([]models.Payment, int64, error)
	ListStalePending(provider string, before time.Time, limit int) ([]models.Payment, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// UpdateColumns 只写入指定列，不覆盖并发写入的状态
func (r *GormPaymentRepository) UpdateColumns(id uint, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(columns).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db, id)
}

// GetByTxRef 根据交易号获取支付记录
func (r *GormPaymentRepository) GetByTxRef(txRef string) (*models.Payment, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, nil
	}
	return firstOrNil[models.Payment](r.db.Where("tx_ref = ?", txRef))
}

// LockByID 行锁读取支付记录（需在事务内调用）
func (r *GormPaymentRepository) LockByID(id uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// ListAdmin 管理端支付列表
func (r *GormPaymentRepository) ListAdmin(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if txRef := strings.TrimSpace(filter.TxRef); txRef != "" {
		query = query.Where("tx_ref = ?", txRef)
	}
	if code := strings.TrimSpace(filter.OrderCode); code != "" {
		query = query.Where(jsonTextExpr(r.db, "meta", "order_code")+" = ?", code)
	}
	if filter.Flagged {
		query = query.Where(jsonArrayNonEmptyExpr(r.db, "meta", "notes"))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.Payment](query, filter.Page, filter.PageSize, "id desc")
}

// ListStalePending 获取长时间未终结的网关支付，供对账任务轮询
func (r *GormPaymentRepository) ListStalePending(provider string, before time.Time, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var payments []models.Payment
	err := r.db.Where("status = ? AND provider = ? AND created_at < ? AND (last_checked_at IS NULL OR last_checked_at < ?)",
		constants.PaymentStatusPending, provider, before, before).
		Order("id asc").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
