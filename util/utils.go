package util

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

const earthRadiusKm = 6371.0

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// DistanceKm returns the great-circle distance in kilometers between two
// WGS84 coordinates using the haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func MetersToKm(meters float64) float64 {
	return meters / 1000.0
}

// GenerateIncidentCode produces the public incident code, e.g.
// INC-20250831142530-0417. The random suffix keeps collisions rare but not
// impossible; callers retry on a uniqueness violation.
func GenerateIncidentCode() string {
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("INC-%s-%04d", timestamp, rand.Intn(10000))
}
