package repository

import (
	"github.com/campusdash/internal/models"

	"gorm.io/gorm"
)

// LocationRepository 配送区域数据访问接口
type LocationRepository interface {
	ListActive() ([]models.Location, error)
	List(filter LocationListFilter) ([]models.Location, int64, error)
	GetByID(id uint) (*models.Location, error)
	Create(location *models.Location) error
	Update(location *models.Location) error
}

// GormLocationRepository GORM 实现
type GormLocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建配送区域仓库
func NewLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// ListActive 按 ID 升序返回全部启用区域（区域匹配的自然顺序）
func (r *GormLocationRepository) ListActive() ([]models.Location, error) {
	var locations []models.Location
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// List 管理端区域列表
func (r *GormLocationRepository) List(filter LocationListFilter) ([]models.Location, int64, error) {
	query := r.db.Model(&models.Location{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	return findPage[models.Location](query, filter.Page, filter.PageSize, "id asc")
}

// GetByID 根据 ID 获取区域
func (r *GormLocationRepository) GetByID(id uint) (*models.Location, error) {
	return firstOrNil[models.Location](r.db, id)
}

// Create 创建区域
func (r *GormLocationRepository) Create(location *models.Location) error {
	return r.db.Create(location).Error
}

// Update 更新区域
func (r *GormLocationRepository) Update(location *models.Location) error {
	return r.db.Save(location).Error
}
