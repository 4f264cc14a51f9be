package fare

// Rates is the linear tariff applied to a quoted trip.
type Rates struct {
	Base      float64
	PerKm     float64
	PerMinute float64
}

// DefaultRates matches the published tariff.
var DefaultRates = Rates{Base: 5, PerKm: 2, PerMinute: 0.5}

// Compute maps a trip quote onto a monetary amount:
// base + km*perKm + minutes*perMinute. Pure and total over non-negative
// inputs, monotone in both.
func (r Rates) Compute(distanceKm, durationHours float64) float64 {
	return r.Base + distanceKm*r.PerKm + durationHours*60*r.PerMinute
}

// Compute applies DefaultRates.
func Compute(distanceKm, durationHours float64) float64 {
	return DefaultRates.Compute(distanceKm, durationHours)
}
