package service

import (
	"context"
	"sort"
	"time"

	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

// GeoZoneService 配送区域判定服务
type GeoZoneService struct {
	locationRepo repository.LocationRepository
	cacheTTL     time.Duration
}

// NewGeoZoneService 创建配送区域服务
func NewGeoZoneService(locationRepo repository.LocationRepository, cacheTTL time.Duration) *GeoZoneService {
	return &GeoZoneService{locationRepo: locationRepo, cacheTTL: cacheTTL}
}

// ActiveZones 读取启用区域（按 ID 升序），优先命中缓存
func (s *GeoZoneService) ActiveZones(ctx context.Context) ([]models.Location, error) {
	if zones, hit, err := cache.GetActiveZones(ctx); err != nil {
		logger.Warnw("zone_cache_read_failed", "error", err)
	} else if hit {
		return sortZones(zones), nil
	}

	zones, err := s.locationRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if err := cache.SetActiveZones(ctx, zones, s.cacheTTL); err != nil {
		logger.Warnw("zone_cache_write_failed", "error", err)
	}
	return sortZones(zones), nil
}

// Invalidate 区域变更后清理缓存
func (s *GeoZoneService) Invalidate(ctx context.Context) {
	if err := cache.InvalidateZones(ctx); err != nil {
		logger.Warnw("zone_cache_invalidate_failed", "error", err)
	}
}

// IsInsideAnyZone 点是否落在任一启用区域内
func (s *GeoZoneService) IsInsideAnyZone(ctx context.Context, lat, lng float64) (bool, error) {
	zone, err := s.FindContainingZone(ctx, lat, lng)
	if err != nil {
		return false, err
	}
	return zone != nil, nil
}

// MatchesZone 点是否落在指定的启用区域内
func (s *GeoZoneService) MatchesZone(ctx context.Context, lat, lng float64, zoneID uint) (bool, error) {
	zone, err := s.zoneByID(ctx, zoneID)
	if err != nil || zone == nil {
		return false, err
	}
	return ZoneContains(zone, lat, lng), nil
}

// FindContainingZone 返回第一个包含该点的启用区域（按 ID 升序），未命中返回 nil
func (s *GeoZoneService) FindContainingZone(ctx context.Context, lat, lng float64) (*models.Location, error) {
	zones, err := s.ActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	for i := range zones {
		if ZoneContains(&zones[i], lat, lng) {
			zone := zones[i]
			return &zone, nil
		}
	}
	return nil, nil
}

// ResolveDeliveryZone 下单/发起支付前的区域判定：指定区域时仅匹配该区域
func (s *GeoZoneService) ResolveDeliveryZone(ctx context.Context, lat, lng float64, locationID uint) (*models.Location, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	if locationID != 0 {
		zone, err := s.zoneByID(ctx, locationID)
		if err != nil {
			return nil, err
		}
		if zone == nil || !ZoneContains(zone, lat, lng) {
			return nil, ErrOutsideDeliveryZone
		}
		return zone, nil
	}
	zone, err := s.FindContainingZone(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrOutsideDeliveryZone
	}
	return zone, nil
}

// GeofenceFor 生成写入支付元数据的判定记录
func GeofenceFor(zone *models.Location, lat, lng float64, at time.Time) *models.GeofenceResult {
	result := &models.GeofenceResult{Lat: lat, Lng: lng, CheckedAt: at}
	if zone != nil {
		result.Inside = true
		result.LocationID = zone.ID
		result.LocationName = zone.Name
		result.DeliveryFee = zone.DeliveryFee
	}
	return result
}

func (s *GeoZoneService) zoneByID(ctx context.Context, zoneID uint) (*models.Location, error) {
	if zoneID == 0 {
		return nil, nil
	}
	zones, err := s.ActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	for i := range zones {
		if zones[i].ID == zoneID {
			zone := zones[i]
			return &zone, nil
		}
	}
	return nil, nil
}

func sortZones(zones []models.Location) []models.Location {
	active := make([]models.Location, 0, len(zones))
	for _, z := range zones {
		if z.IsActive {
			active = append(active, z)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active
}
