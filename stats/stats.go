// Package stats computes windowed price statistics and classifies
// sigma deals from a product's observation history.
package stats

import (
	"math"
	"time"

	"deolho/models"

	"github.com/shopspring/decimal"
)

// Compute derives the statistics for the trailing window ending at now.
// Fewer than two samples in the window means the variance is undefined
// and the statistics are absent: (nil, false), never a zero-variance
// result and never an error.
//
// The standard deviation is the population deviation (sum of squared
// deviations over n, not n−1): on the small, irregular windows this
// system sees, a single new observation should not swing the estimate.
func Compute(observations []models.PriceObservation, windowDays int, now time.Time) (*models.PriceStatistics, bool) {
	cutoff := now.AddDate(0, 0, -windowDays)

	var samples []decimal.Decimal
	for _, obs := range observations {
		if obs.RecordedAt.After(cutoff) && !obs.RecordedAt.After(now) {
			samples = append(samples, obs.Price)
		}
	}

	n := len(samples)
	if n < 2 {
		return nil, false
	}

	count := decimal.NewFromInt(int64(n))

	sum := decimal.Zero
	for _, price := range samples {
		sum = sum.Add(price)
	}
	mean := sum.Div(count)

	sumSquares := decimal.Zero
	for _, price := range samples {
		dev := price.Sub(mean)
		sumSquares = sumSquares.Add(dev.Mul(dev))
	}
	variance := sumSquares.Div(count)

	// Only the square root itself goes through float64; everything else
	// stays exact.
	stdDev := decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))

	return models.NewPriceStatistics(windowDays, n, mean, stdDev), true
}
