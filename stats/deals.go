package stats

import (
	"sort"

	"deolho/models"

	"github.com/shopspring/decimal"
)

// Classify decides whether the current price qualifies as a sigma deal
// against one window's statistics. The 2σ threshold is checked first so
// callers get exclusive buckets (every 2σ deal also satisfies 1σ).
//
// A flat history (σ = 0) never produces a deal: both thresholds equal
// the mean there, and a price merely sitting at its own mean is not a
// drop.
func Classify(current decimal.Decimal, st *models.PriceStatistics) (sigmaLevel int, ok bool) {
	if st == nil || st.Flat() {
		return 0, false
	}
	if current.LessThanOrEqual(st.Threshold(2)) {
		return 2, true
	}
	if current.LessThanOrEqual(st.Threshold(1)) {
		return 1, true
	}
	return 0, false
}

// NewClassification assembles the classification record for a product
// that qualified at sigmaLevel for the given window.
func NewClassification(product *models.Product, st *models.PriceStatistics, sigmaLevel int) models.DealClassification {
	threshold := st.Threshold(sigmaLevel)
	current := product.CurrentPrice.Decimal
	return models.DealClassification{
		ProductID:    product.ID,
		SKU:          product.SKU,
		Title:        product.Title,
		WindowDays:   st.WindowDays,
		SigmaLevel:   sigmaLevel,
		CurrentPrice: current,
		Threshold:    threshold.Round(2),
		Margin:       threshold.Sub(current),
	}
}

// BestDeals filters candidates down to the exceptional (2σ) deals,
// deduplicates by product keeping the classification with the largest
// margin, and returns them sorted by margin descending. Ties break on
// the product identifier so the ranking is deterministic.
func BestDeals(candidates []models.DealClassification) []models.DealClassification {
	best := make(map[int]models.DealClassification)
	for _, c := range candidates {
		if c.SigmaLevel != 2 {
			continue
		}
		kept, exists := best[c.ProductID]
		if !exists || c.Margin.GreaterThan(kept.Margin) {
			best[c.ProductID] = c
		}
	}

	deals := make([]models.DealClassification, 0, len(best))
	for _, c := range best {
		deals = append(deals, c)
	}
	sort.Slice(deals, func(i, j int) bool {
		if !deals[i].Margin.Equal(deals[j].Margin) {
			return deals[i].Margin.GreaterThan(deals[j].Margin)
		}
		if deals[i].SKU != deals[j].SKU {
			return deals[i].SKU < deals[j].SKU
		}
		return deals[i].ProductID < deals[j].ProductID
	})
	return deals
}
