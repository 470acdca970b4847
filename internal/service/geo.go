package service

import (
	"math"

	"github.com/campusdash/internal/models"
)

const earthRadiusKm = 6371.0088

// ValidCoordinates 经纬度是否在合法范围内
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineKm 两点间大圆距离（公里）
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// PointInPolygon 射线法（奇偶规则），顶点与待测点均按 (lat, lng) 解释
func PointInPolygon(lat, lng float64, polygon models.GeoPolygon) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		latI, lngI := polygon[i].Lat(), polygon[i].Lng()
		latJ, lngJ := polygon[j].Lat(), polygon[j].Lng()
		if (latI > lat) != (latJ > lat) {
			crossLng := (lngJ-lngI)*(lat-latI)/(latJ-latI) + lngI
			if lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// hasCircle 圆形区域数据是否完整
func hasCircle(loc *models.Location) bool {
	return loc.CenterLat != nil && loc.CenterLng != nil && loc.RadiusKm != nil &&
		*loc.RadiusKm > 0 && ValidCoordinates(*loc.CenterLat, *loc.CenterLng)
}

// hasPolygon 多边形区域数据是否完整
func hasPolygon(loc *models.Location) bool {
	points := loc.PolygonPoints()
	if len(points) < 3 {
		return false
	}
	for _, p := range points {
		if !ValidCoordinates(p.Lat(), p.Lng()) {
			return false
		}
	}
	return true
}

// ZoneUsable 区域是否可用于判定
func ZoneUsable(loc *models.Location) bool {
	if loc == nil {
		return false
	}
	return hasCircle(loc) || hasPolygon(loc)
}

// ZoneContains 判断点是否落在区域内，数据不完整的区域永不命中
func ZoneContains(loc *models.Location, lat, lng float64) bool {
	if loc == nil || !ValidCoordinates(lat, lng) {
		return false
	}
	if hasPolygon(loc) && PointInPolygon(lat, lng, loc.PolygonPoints()) {
		return true
	}
	if hasCircle(loc) && HaversineKm(lat, lng, *loc.CenterLat, *loc.CenterLng) <= *loc.RadiusKm {
		return true
	}
	return false
}
