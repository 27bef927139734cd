package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome tags the result of one scrape attempt. Expected failure modes
// are data, not errors, so callers can branch without unwrapping.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomePartial         Outcome = "partial"
	OutcomeBlocked         Outcome = "blocked"
	OutcomeTransportError  Outcome = "transport_error"
	OutcomeUnrecognizedURL Outcome = "unrecognized_url"
	OutcomeFailed          Outcome = "failed"
)

// ScrapedProduct is the result of one scrape attempt. It is handed
// straight to the caller to update persisted state and is never stored
// itself.
type ScrapedProduct struct {
	SKU           string           `json:"sku"`
	URL           string           `json:"url"`
	Title         *string          `json:"title,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	Available     bool             `json:"is_available"`
	Rating        *float64         `json:"rating,omitempty"`
	ReviewCount   *int             `json:"review_count,omitempty"`
	Err           string           `json:"error,omitempty"`
	Outcome       Outcome          `json:"outcome"`
}

// HasTitle returns true when a title was extracted.
func (sp *ScrapedProduct) HasTitle() bool {
	return sp.Title != nil && *sp.Title != ""
}

// HasPrice returns true when a price was extracted.
func (sp *ScrapedProduct) HasPrice() bool {
	return sp.Price != nil
}

// Product is a monitored product.
type Product struct {
	ID           int                 `json:"id" db:"id"`
	Store        Store               `json:"store" db:"store"`
	SKU          string              `json:"sku" db:"sku"`
	URL          string              `json:"url" db:"url"`
	Title        string              `json:"title" db:"title"`
	ImageURL     *string             `json:"image_url" db:"image_url"`
	TargetPrice  decimal.Decimal     `json:"target_price" db:"target_price"`
	CurrentPrice decimal.NullDecimal `json:"current_price" db:"current_price"`
	LowestPrice  decimal.NullDecimal `json:"lowest_price" db:"lowest_price"`
	HighestPrice decimal.NullDecimal `json:"highest_price" db:"highest_price"`
	IsActive     bool                `json:"is_active" db:"is_active"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// AtTarget returns true when the current price is at or below target.
func (p *Product) AtTarget() bool {
	return p.CurrentPrice.Valid && p.CurrentPrice.Decimal.LessThanOrEqual(p.TargetPrice)
}

// Bounds carries the running lowest/highest prices for a product.
type Bounds struct {
	Lowest  decimal.NullDecimal `json:"lowest"`
	Highest decimal.NullDecimal `json:"highest"`
}

// UpdateBounds folds one new price into the running bounds. Pure: the
// caller decides when and where the new bounds get written.
func UpdateBounds(old Bounds, price decimal.Decimal) Bounds {
	next := Bounds{
		Lowest:  decimal.NewNullDecimal(price),
		Highest: decimal.NewNullDecimal(price),
	}
	if old.Lowest.Valid && old.Lowest.Decimal.LessThan(price) {
		next.Lowest = old.Lowest
	}
	if old.Highest.Valid && old.Highest.Decimal.GreaterThan(price) {
		next.Highest = old.Highest
	}
	return next
}

// PriceObservation is one historical price sample. Append-only: rows are
// never mutated and only removed by deleting the whole product.
type PriceObservation struct {
	ID         int             `json:"id" db:"id"`
	ProductID  int             `json:"product_id" db:"product_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Available  bool            `json:"was_available" db:"was_available"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}

// PriceStatistics describes a product's price distribution over one
// trailing window. Derived on demand, never persisted. The unrounded
// mean and deviation stay internal so threshold math is exact; the
// accessors round to currency precision for display.
type PriceStatistics struct {
	WindowDays  int
	SampleCount int

	mean   decimal.Decimal
	stdDev decimal.Decimal
}

// NewPriceStatistics builds a PriceStatistics from unrounded values.
func NewPriceStatistics(windowDays, sampleCount int, mean, stdDev decimal.Decimal) *PriceStatistics {
	return &PriceStatistics{
		WindowDays:  windowDays,
		SampleCount: sampleCount,
		mean:        mean,
		stdDev:      stdDev,
	}
}

// Mean returns the window mean rounded to 2 decimals.
func (s *PriceStatistics) Mean() decimal.Decimal {
	return s.mean.Round(2)
}

// StdDev returns the population standard deviation rounded to 2 decimals.
func (s *PriceStatistics) StdDev() decimal.Decimal {
	return s.stdDev.Round(2)
}

// Flat returns true when every sample in the window had the same price.
func (s *PriceStatistics) Flat() bool {
	return s.stdDev.IsZero()
}

// Threshold returns mean − k·σ using the unrounded values.
func (s *PriceStatistics) Threshold(k int) decimal.Decimal {
	return s.mean.Sub(s.stdDev.Mul(decimal.NewFromInt(int64(k))))
}

// MarshalJSON exposes the rounded presentation values.
func (s *PriceStatistics) MarshalJSON() ([]byte, error) {
	type view struct {
		WindowDays  int             `json:"window_days"`
		SampleCount int             `json:"sample_count"`
		Mean        decimal.Decimal `json:"mean"`
		StdDev      decimal.Decimal `json:"std_dev"`
		Threshold1  decimal.Decimal `json:"threshold_1sigma"`
		Threshold2  decimal.Decimal `json:"threshold_2sigma"`
	}
	return json.Marshal(view{
		WindowDays:  s.WindowDays,
		SampleCount: s.SampleCount,
		Mean:        s.Mean(),
		StdDev:      s.StdDev(),
		Threshold1:  s.Threshold(1).Round(2),
		Threshold2:  s.Threshold(2).Round(2),
	})
}

// DealClassification records that a product's current price sits at or
// below one of its sigma thresholds for some window.
type DealClassification struct {
	ProductID    int             `json:"product_id"`
	SKU          string          `json:"sku"`
	Title        string          `json:"title"`
	WindowDays   int             `json:"window_days"`
	SigmaLevel   int             `json:"sigma_level"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Threshold    decimal.Decimal `json:"threshold"`
	Margin       decimal.Decimal `json:"margin"`
}

// AlertType enumerates the supported alert conditions.
type AlertType string

const (
	AlertTargetReached AlertType = "target_reached"
	AlertPriceDrop     AlertType = "price_drop"
	AlertBelowAverage  AlertType = "below_average"
)

// Alert is a persisted notification rule for one product.
type Alert struct {
	ID               int                 `json:"id" db:"id"`
	ProductID        int                 `json:"product_id" db:"product_id"`
	Type             AlertType           `json:"alert_type" db:"alert_type"`
	ThresholdValue   decimal.NullDecimal `json:"threshold_value" db:"threshold_value"`
	ThresholdPercent decimal.NullDecimal `json:"threshold_percentage" db:"threshold_percentage"`
	IsActive         bool                `json:"is_active" db:"is_active"`
	IsTriggered      bool                `json:"is_triggered" db:"is_triggered"`
	TriggeredPrice   decimal.NullDecimal `json:"triggered_price" db:"triggered_price"`
	TriggeredAt      *time.Time          `json:"triggered_at" db:"triggered_at"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
}
