package repository

import (
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车，每个用户每个商品一行
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	LockByUser(userID uint) ([]models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndProduct(userID, productID uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

func (r *GormCartRepository) byUser(db *gorm.DB, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := db.Where("user_id = ?", userID).Order("product_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUser 按商品 ID 升序，下单时锁库存的顺序与此一致
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	return r.byUser(r.db, userID)
}

// LockByUser 同一用户并发下单时串行化
func (r *GormCartRepository) LockByUser(userID uint) ([]models.CartItem, error) {
	return r.byUser(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

// Upsert 依赖 (user_id, product_id) 唯一索引，冲突时覆盖数量
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

// DeleteByUserAndProduct 删除购物车项
func (r *GormCartRepository) DeleteByUserAndProduct(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{}).Error
}

// ClearByUser 下单成功后在同一事务内清空
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
