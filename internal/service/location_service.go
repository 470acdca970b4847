package service

import (
	"context"
	"strings"
	"time"

	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"gorm.io/datatypes"
)

// LocationService 配送区域管理
type LocationService struct {
	repo     repository.LocationRepository
	geoZones *GeoZoneService
}

// NewLocationService 创建配送区域服务
func NewLocationService(repo repository.LocationRepository, geoZones *GeoZoneService) *LocationService {
	return &LocationService{repo: repo, geoZones: geoZones}
}

// LocationInput 配送区域输入，圆形与多边形至少配置一种
type LocationInput struct {
	Name        string
	IsActive    *bool
	CenterLat   *float64
	CenterLng   *float64
	RadiusKm    *float64
	Polygon     models.GeoPolygon
	DeliveryFee models.Money
}

// ZoneCheckResult 坐标区域判定结果
type ZoneCheckResult struct {
	Inside       bool         `json:"inside"`
	LocationID   uint         `json:"location_id,omitempty"`
	LocationName string       `json:"location_name,omitempty"`
	DeliveryFee  models.Money `json:"delivery_fee"`
}

// ListActive 公开的启用区域
func (s *LocationService) ListActive(ctx context.Context) ([]models.Location, error) {
	return s.geoZones.ActiveZones(ctx)
}

// Check 判断坐标是否在任一配送区域内
func (s *LocationService) Check(ctx context.Context, lat, lng float64) (*ZoneCheckResult, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	zone, err := s.geoZones.FindContainingZone(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return &ZoneCheckResult{Inside: false}, nil
	}
	return &ZoneCheckResult{
		Inside:       true,
		LocationID:   zone.ID,
		LocationName: zone.Name,
		DeliveryFee:  zone.DeliveryFee,
	}, nil
}

// ListAdmin 后台区域列表
func (s *LocationService) ListAdmin(page, pageSize int) ([]models.Location, int64, error) {
	return s.repo.List(repository.LocationListFilter{Page: page, PageSize: pageSize})
}

// Create 创建区域
func (s *LocationService) Create(ctx context.Context, input LocationInput) (*models.Location, error) {
	location := &models.Location{CreatedAt: time.Now()}
	if err := applyLocationInput(location, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(location); err != nil {
		return nil, err
	}
	s.geoZones.Invalidate(ctx)
	logger.Infow("location_created", "location_id", location.ID, "name", location.Name)
	return location, nil
}

// Update 更新区域
func (s *LocationService) Update(ctx context.Context, id uint, input LocationInput) (*models.Location, error) {
	location, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	if err := applyLocationInput(location, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(location); err != nil {
		return nil, err
	}
	s.geoZones.Invalidate(ctx)
	logger.Infow("location_updated", "location_id", location.ID, "is_active", location.IsActive)
	return location, nil
}

func applyLocationInput(location *models.Location, input LocationInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return NewValidationError("name", "required")
	}
	if input.DeliveryFee.IsNegative() {
		return NewValidationError("delivery_fee", "gte")
	}
	location.Name = name
	location.CenterLat = input.CenterLat
	location.CenterLng = input.CenterLng
	location.RadiusKm = input.RadiusKm
	location.Polygon = datatypes.NewJSONType(input.Polygon)
	location.DeliveryFee = input.DeliveryFee
	if input.IsActive != nil {
		location.IsActive = *input.IsActive
	} else if location.ID == 0 {
		location.IsActive = true
	}
	location.UpdatedAt = time.Now()
	if !ZoneUsable(location) {
		return ErrLocationInvalid
	}
	return nil
}
