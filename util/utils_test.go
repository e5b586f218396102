package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	points := []struct {
		name     string
		lat, lon float64
	}{
		{"origin", 0, 0},
		{"north pole", 90, 0},
		{"nicosia", 35.1856, 33.3823},
		{"date line", -12.5, 180},
	}

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			assert.Zero(t, DistanceKm(p.lat, p.lon, p.lat, p.lon))
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(35.1856, 33.3823, 40.7128, -74.0060)
	b := DistanceKm(40.7128, -74.0060, 35.1856, 33.3823)
	assert.Equal(t, a, b)
}

func TestDistanceKmKnownDistances(t *testing.T) {
	testCases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expectedKm             float64
		toleranceKm            float64
	}{
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.5},
		{"nicosia to kyrenia", 35.1856, 33.3823, 35.3364, 33.3182, 17.8, 1.0},
		{"150 meters apart", 35.18560, 33.38230, 35.18695, 33.38230, 0.150, 0.002},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.expectedKm, got, tc.toleranceKm)
		})
	}
}

func TestDistanceKmMonotonic(t *testing.T) {
	near := DistanceKm(35.0, 33.0, 35.001, 33.0)
	mid := DistanceKm(35.0, 33.0, 35.01, 33.0)
	far := DistanceKm(35.0, 33.0, 35.1, 33.0)

	assert.Less(t, near, mid)
	assert.Less(t, mid, far)
}

func TestGenerateIncidentCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^INC-\d{14}-\d{4}$`)

	for i := 0; i < 50; i++ {
		code := GenerateIncidentCode()
		assert.True(t, pattern.MatchString(code), "unexpected code %q", code)
	}
}

func TestMetersToKm(t *testing.T) {
	assert.Equal(t, 0.3, MetersToKm(300))
	assert.Equal(t, 0.0, MetersToKm(0))
}
