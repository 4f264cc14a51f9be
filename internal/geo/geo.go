package geo

import (
	"math"

	"github.com/example/accessride/internal/models"
)

const earthRadiusKm = 6371.0

// DefaultSpeedKmh is the assumed city average used to turn distance into a
// duration. There is no traffic or routing model.
const DefaultSpeedKmh = 30.0

// HaversineKm is the great-circle distance between two coordinates in km.
func HaversineKm(a, b models.Coord) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// TripEstimate is the quoted leg between pickup and dropoff.
type TripEstimate struct {
	DistanceKm    float64
	DurationHours float64
}

// EstimateTrip quotes a trip at the given average speed. A non-positive
// speed falls back to DefaultSpeedKmh. Non-finite coordinates propagate as
// non-finite output; validation belongs to the caller.
func EstimateTrip(pickup, dropoff models.Coord, speedKmh float64) TripEstimate {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	d := HaversineKm(pickup, dropoff)
	return TripEstimate{DistanceKm: d, DurationHours: d / speedKmh}
}
