package service

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/campusdash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func floatPtr(v float64) *float64 { return &v }

func TestPointInPolygonSquare(t *testing.T) {
	square := squareAround(campusLat, campusLng, 0.01)
	assert.True(t, PointInPolygon(campusLat, campusLng, square))
	assert.True(t, PointInPolygon(campusLat+0.009, campusLng-0.009, square))
	assert.False(t, PointInPolygon(campusLat+0.011, campusLng, square))
	assert.False(t, PointInPolygon(campusLat, campusLng-0.02, square))
	assert.False(t, PointInPolygon(campusLat, campusLng, square[:2]))
}

func TestPointInPolygonConcave(t *testing.T) {
	// L 形区域，缺口位于右上角
	shape := models.GeoPolygon{{0, 0}, {0, 2}, {1, 2}, {1, 1}, {2, 1}, {2, 0}}
	assert.True(t, PointInPolygon(0.5, 1.5, shape))
	assert.True(t, PointInPolygon(1.5, 0.5, shape))
	assert.False(t, PointInPolygon(1.5, 1.5, shape))
}

func TestZoneContainsMatchesGeometry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	square := &models.Location{Polygon: datatypes.NewJSONType(squareAround(campusLat, campusLng, 0.01))}
	circle := &models.Location{CenterLat: floatPtr(campusLat), CenterLng: floatPtr(campusLng), RadiusKm: floatPtr(1.5)}

	for i := 0; i < 500; i++ {
		lat := campusLat + (rng.Float64()-0.5)*0.06
		lng := campusLng + (rng.Float64()-0.5)*0.06

		inSquare := math.Abs(lat-campusLat) < 0.01 && math.Abs(lng-campusLng) < 0.01
		assert.Equal(t, inSquare, ZoneContains(square, lat, lng), "square lat=%f lng=%f", lat, lng)

		dist := HaversineKm(lat, lng, campusLat, campusLng)
		if math.Abs(dist-1.5) > 1e-6 {
			assert.Equal(t, dist <= 1.5, ZoneContains(circle, lat, lng), "circle lat=%f lng=%f", lat, lng)
		}
	}
}

func TestZoneContainsRejectsIncompleteZones(t *testing.T) {
	assert.False(t, ZoneContains(nil, campusLat, campusLng))
	assert.False(t, ZoneContains(&models.Location{}, campusLat, campusLng))
	noRadius := &models.Location{CenterLat: floatPtr(campusLat), CenterLng: floatPtr(campusLng)}
	assert.False(t, ZoneUsable(noRadius))
	assert.False(t, ZoneContains(noRadius, campusLat, campusLng))
	zeroRadius := &models.Location{CenterLat: floatPtr(campusLat), CenterLng: floatPtr(campusLng), RadiusKm: floatPtr(0)}
	assert.False(t, ZoneContains(zeroRadius, campusLat, campusLng))

	square := &models.Location{Polygon: datatypes.NewJSONType(squareAround(campusLat, campusLng, 0.01))}
	assert.False(t, ZoneContains(square, math.NaN(), campusLng))
	assert.False(t, ZoneContains(square, 91, campusLng))
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(campusLat, campusLng, campusLat, campusLng), 1e-9)
	// 赤道上 1 度经度约 111.2km
	assert.InDelta(t, 111.195, HaversineKm(0, 0, 0, 1), 0.01)
}

func TestResolveDeliveryZoneLowestIDWins(t *testing.T) {
	env := newWorkflowEnv(t, "geo_lowest_id")
	ctx := context.Background()

	wide := &models.Location{
		Name:        "Wide",
		IsActive:    true,
		CenterLat:   floatPtr(campusLat),
		CenterLng:   floatPtr(campusLng),
		RadiusKm:    floatPtr(5),
		DeliveryFee: models.NewMoneyFromInt(800),
	}
	require.NoError(t, env.locationRepo.Create(wide))
	narrow := env.seedCampusZone(t, 300)

	zone, err := env.geoZones.ResolveDeliveryZone(ctx, campusLat, campusLng, 0)
	require.NoError(t, err)
	assert.Equal(t, wide.ID, zone.ID)

	zone, err = env.geoZones.ResolveDeliveryZone(ctx, campusLat, campusLng, narrow.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", zone.DeliveryFee.String())

	_, err = env.geoZones.ResolveDeliveryZone(ctx, campusLat+0.03, campusLng, narrow.ID)
	require.ErrorIs(t, err, ErrOutsideDeliveryZone)

	inside, err := env.geoZones.IsInsideAnyZone(ctx, campusLat+0.03, campusLng)
	require.NoError(t, err)
	assert.True(t, inside)

	wide.IsActive = false
	require.NoError(t, env.locationRepo.Update(wide))
	env.geoZones.Invalidate(ctx)
	inside, err = env.geoZones.IsInsideAnyZone(ctx, campusLat+0.03, campusLng)
	require.NoError(t, err)
	assert.False(t, inside)
}

func TestGeofenceFor(t *testing.T) {
	zone := &models.Location{ID: 7, Name: "Chancellor", DeliveryFee: models.NewMoneyFromInt(450)}
	record := GeofenceFor(zone, campusLat, campusLng, fixedTime())
	assert.True(t, record.Inside)
	assert.Equal(t, uint(7), record.LocationID)
	assert.Equal(t, "450.00", record.DeliveryFee.String())

	miss := GeofenceFor(nil, campusLat, campusLng, fixedTime())
	assert.False(t, miss.Inside)
	assert.Zero(t, miss.LocationID)
}
