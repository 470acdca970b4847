package cache

import (
	"context"
	"time"

	"github.com/campusdash/internal/models"
)

const activeZonesKey = "zones:active"

// GetActiveZones 读取启用配送区域缓存
func GetActiveZones(ctx context.Context) ([]models.Location, bool, error) {
	var zones []models.Location
	hit, err := GetJSON(ctx, activeZonesKey, &zones)
	if err != nil || !hit {
		return nil, hit, err
	}
	return zones, true, nil
}

// SetActiveZones 写入启用配送区域缓存
func SetActiveZones(ctx context.Context, zones []models.Location, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, activeZonesKey, zones, ttl)
}

// InvalidateZones 区域变更后清除缓存
func InvalidateZones(ctx context.Context) error {
	return Del(ctx, activeZonesKey)
}
