package services

import (
	"math"
	"time"
)

// PricingCalculator prices a stay from the nightly rate alone. Nights are
// counted at calendar-day granularity so check-in/check-out times of day do
// not change the total.
type PricingCalculator struct{}

func NewPricingCalculator() PricingCalculator {
	return PricingCalculator{}
}

func (PricingCalculator) Nights(start, end time.Time) int {
	s := truncateToDay(start)
	e := truncateToDay(end)
	if !e.After(s) {
		return 0
	}
	return int(math.Ceil(e.Sub(s).Hours() / 24))
}

func (p PricingCalculator) Total(pricePerNight float64, start, end time.Time) float64 {
	return float64(p.Nights(start, end)) * pricePerNight
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
