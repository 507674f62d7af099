package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	d := DistanceKm(24.7136, 46.6753, 24.7136, 46.6753)
	assert.Equal(t, 0.0, d)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(24.7136, 46.6753, 21.4858, 39.1925)
	b := DistanceKm(21.4858, 39.1925, 24.7136, 46.6753)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Riyadh to Jeddah, roughly 846 km great-circle.
	d := DistanceKm(24.7136, 46.6753, 21.4858, 39.1925)
	assert.InDelta(t, 846, d, 10)
}

func TestDistanceKm_ShortDistance(t *testing.T) {
	// 0.03 degrees of latitude is about 3.34 km.
	d := DistanceKm(24.7136, 46.6753, 24.7436, 46.6753)
	assert.InDelta(t, 3.34, d, 0.02)
}

func TestRequiresExtraFee_StrictBoundary(t *testing.T) {
	assert.False(t, RequiresExtraFee(0))
	assert.False(t, RequiresExtraFee(2.999))
	assert.False(t, RequiresExtraFee(3.0), "exactly 3.0 km is still free")
	assert.True(t, RequiresExtraFee(3.001))
	assert.True(t, RequiresExtraFee(5.2))
}
