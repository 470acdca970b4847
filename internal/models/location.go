package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeoPoint 坐标点，固定为 [纬度, 经度] 顺序
type GeoPoint [2]float64

// Lat 纬度
func (p GeoPoint) Lat() float64 { return p[0] }

// Lng 经度
func (p GeoPoint) Lng() float64 { return p[1] }

// GeoPolygon 多边形顶点（按顺序连接，首尾自动闭合）
type GeoPolygon []GeoPoint

// Location 配送区域：圆形（中心+半径）或多边形，可同时配置
type Location struct {
	ID          uint                           `gorm:"primarykey" json:"id"`                                      // 主键
	Name        string                         `gorm:"not null" json:"name"`                                      // 区域名称（如宿舍楼、教学区）
	IsActive    bool                           `gorm:"not null;default:true;index" json:"is_active"`              // 是否启用
	CenterLat   *float64                       `json:"center_lat"`                                                // 圆心纬度
	CenterLng   *float64                       `json:"center_lng"`                                                // 圆心经度
	RadiusKm    *float64                       `json:"radius_km"`                                                 // 半径（公里）
	Polygon     datatypes.JSONType[GeoPolygon] `gorm:"type:json" json:"polygon"`                                  // 多边形顶点
	DeliveryFee Money                          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"` // 配送费
	CreatedAt   time.Time                      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time                      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt                 `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Location) TableName() string {
	return "locations"
}

// PolygonPoints 返回多边形顶点
func (l Location) PolygonPoints() GeoPolygon {
	return l.Polygon.Data()
}
