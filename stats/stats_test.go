package stats

import (
	"testing"
	"time"

	"deolho/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// obsAt builds an observation n days before now.
func obsAt(price string, daysAgo int, now time.Time) models.PriceObservation {
	return models.PriceObservation{
		Price:      d(price),
		Available:  true,
		RecordedAt: now.AddDate(0, 0, -daysAgo),
	}
}

func TestComputeRequiresTwoSamples(t *testing.T) {
	now := time.Now()

	if _, ok := Compute(nil, 30, now); ok {
		t.Error("no observations must yield absent statistics")
	}
	if _, ok := Compute([]models.PriceObservation{obsAt("10.00", 1, now)}, 30, now); ok {
		t.Error("a single observation must yield absent statistics, not zero variance")
	}
}

func TestComputeFiltersToWindow(t *testing.T) {
	now := time.Now()
	obs := []models.PriceObservation{
		obsAt("100.00", 45, now), // outside a 30-day window
		obsAt("10.00", 10, now),
		obsAt("20.00", 5, now),
	}

	st, ok := Compute(obs, 30, now)
	if !ok {
		t.Fatal("expected statistics")
	}
	if st.SampleCount != 2 {
		t.Fatalf("SampleCount = %d, want 2 (stale sample must be excluded)", st.SampleCount)
	}
	if !st.Mean().Equal(d("15.00")) {
		t.Errorf("Mean = %s, want 15.00", st.Mean())
	}
	// Population deviation of {10, 20} is 5, not the sample deviation ~7.07.
	if !st.StdDev().Equal(d("5.00")) {
		t.Errorf("StdDev = %s, want 5.00 (population, not sample)", st.StdDev())
	}
}

func TestThresholdOrdering(t *testing.T) {
	now := time.Now()
	histories := [][]models.PriceObservation{
		{obsAt("10.00", 1, now), obsAt("20.00", 2, now)},
		{obsAt("39.60", 1, now), obsAt("41.20", 3, now), obsAt("44.90", 7, now)},
		{obsAt("10.00", 1, now), obsAt("10.00", 2, now), obsAt("10.00", 3, now)},
		{obsAt("1234.56", 2, now), obsAt("999.99", 9, now), obsAt("1100.00", 20, now)},
	}

	for _, obs := range histories {
		st, ok := Compute(obs, 30, now)
		if !ok {
			t.Fatal("expected statistics")
		}
		t1, t2 := st.Threshold(1), st.Threshold(2)
		if t2.GreaterThan(t1) {
			t.Errorf("threshold(2)=%s above threshold(1)=%s", t2, t1)
		}
		if t1.GreaterThan(st.Mean().Add(d("0.01"))) {
			t.Errorf("threshold(1)=%s above mean=%s", t1, st.Mean())
		}
	}
}

func TestFlatHistoryIsNeverADeal(t *testing.T) {
	now := time.Now()
	obs := []models.PriceObservation{
		obsAt("10.00", 1, now),
		obsAt("10.00", 2, now),
		obsAt("10.00", 3, now),
	}

	st, ok := Compute(obs, 30, now)
	if !ok {
		t.Fatal("expected statistics")
	}
	if !st.StdDev().IsZero() {
		t.Fatalf("StdDev = %s, want 0", st.StdDev())
	}
	if !st.Threshold(1).Equal(d("10.00")) || !st.Threshold(2).Equal(d("10.00")) {
		t.Fatalf("flat thresholds = %s / %s, want 10.00", st.Threshold(1), st.Threshold(2))
	}

	// Price exactly at the mean satisfies "≤ threshold" arithmetically,
	// but a flat history must not flag it.
	if _, ok := Classify(d("10.00"), st); ok {
		t.Error("σ=0 history classified a deal at the mean price")
	}
	if _, ok := Classify(d("9.99"), st); ok {
		t.Error("σ=0 history classified a deal below the mean")
	}
}

func TestClassifyChecksTwoSigmaFirst(t *testing.T) {
	// mean 100, σ 10: threshold(1)=90, threshold(2)=80.
	st := models.NewPriceStatistics(30, 5, d("100"), d("10"))

	if level, ok := Classify(d("75.00"), st); !ok || level != 2 {
		t.Errorf("Classify(75) = (%d, %v), want (2, true)", level, ok)
	}
	if level, ok := Classify(d("80.00"), st); !ok || level != 2 {
		t.Errorf("Classify(80) = (%d, %v), want (2, true): threshold is inclusive", level, ok)
	}
	if level, ok := Classify(d("85.00"), st); !ok || level != 1 {
		t.Errorf("Classify(85) = (%d, %v), want (1, true)", level, ok)
	}
	if level, ok := Classify(d("90.00"), st); !ok || level != 1 {
		t.Errorf("Classify(90) = (%d, %v), want (1, true)", level, ok)
	}
	if _, ok := Classify(d("90.01"), st); ok {
		t.Error("price above the 1σ threshold must not classify")
	}

	if _, ok := Classify(d("1.00"), nil); ok {
		t.Error("absent statistics must never classify")
	}
}

func TestThresholdUsesUnroundedValues(t *testing.T) {
	// mean 10.005, σ 0.0049: rounding before subtraction would give a
	// different threshold than rounding after.
	st := models.NewPriceStatistics(7, 3, d("10.005"), d("0.0049"))
	want := d("10.005").Sub(d("0.0098"))
	if !st.Threshold(2).Equal(want) {
		t.Errorf("Threshold(2) = %s, want %s", st.Threshold(2), want)
	}
	// The display accessors round.
	if !st.Mean().Equal(d("10.01")) {
		t.Errorf("Mean() = %s, want 10.01", st.Mean())
	}
}

func TestBestDeals(t *testing.T) {
	deals := []models.DealClassification{
		{ProductID: 1, SKU: "A1", WindowDays: 7, SigmaLevel: 2, Margin: d("5.00")},
		{ProductID: 1, SKU: "A1", WindowDays: 30, SigmaLevel: 2, Margin: d("8.00")},
		{ProductID: 2, SKU: "B2", WindowDays: 30, SigmaLevel: 1, Margin: d("50.00")}, // 1σ only, dropped
		{ProductID: 3, SKU: "C3", WindowDays: 7, SigmaLevel: 2, Margin: d("8.00")},
		{ProductID: 4, SKU: "D4", WindowDays: 7, SigmaLevel: 2, Margin: d("2.00")},
	}

	best := BestDeals(deals)
	if len(best) != 3 {
		t.Fatalf("len(best) = %d, want 3", len(best))
	}

	// Product 1 keeps its larger 30-day margin; the 8.00 tie between
	// products 1 and 3 breaks on SKU.
	if best[0].ProductID != 1 || best[0].WindowDays != 30 {
		t.Errorf("best[0] = product %d window %d, want product 1 window 30", best[0].ProductID, best[0].WindowDays)
	}
	if best[1].ProductID != 3 {
		t.Errorf("best[1] = product %d, want 3", best[1].ProductID)
	}
	if best[2].ProductID != 4 {
		t.Errorf("best[2] = product %d, want 4", best[2].ProductID)
	}
}

func TestBestDealsEmpty(t *testing.T) {
	if got := BestDeals(nil); len(got) != 0 {
		t.Errorf("BestDeals(nil) = %v, want empty", got)
	}
}
