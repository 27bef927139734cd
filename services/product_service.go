// Package services holds the application logic that ties the scraper,
// the repositories and the statistics together.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"deolho/config"
	"deolho/models"
	"deolho/repository"
	"deolho/scraper"
	"deolho/stats"
)

var (
	ErrInvalidTargetPrice = errors.New("invalid target price")
	ErrScrapeFailed       = errors.New("could not extract product data")
)

// CheckResult reports the outcome of one batch price check.
type CheckResult struct {
	Checked  int                      `json:"checked"`
	Updated  int                      `json:"updated"`
	Failures map[string]string        `json:"failures,omitempty"`
	Scrapes  []*models.ScrapedProduct `json:"-"`
}

type ProductService struct {
	products *repository.ProductRepository
	scraper  *scraper.Scraper
	cfg      *config.Config
}

func NewProductService(products *repository.ProductRepository, sc *scraper.Scraper, cfg *config.Config) *ProductService {
	return &ProductService{products: products, scraper: sc, cfg: cfg}
}

// Add starts tracking a product. The URL is scraped immediately so the
// product is stored with a real title and a first price observation.
// Adding a URL whose (store, sku) pair is already tracked updates the
// target price of the existing row instead of duplicating it.
func (s *ProductService) Add(rawURL, targetPrice string) (*models.Product, error) {
	target, ok := scraper.ParsePrice(targetPrice)
	if !ok || !target.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}

	scraped := s.scraper.ScrapeWithRetry(rawURL)
	switch scraped.Outcome {
	case models.OutcomeUnrecognizedURL:
		return nil, models.ErrUnrecognizedURL
	case models.OutcomeSuccess, models.OutcomePartial:
	default:
		return nil, fmt.Errorf("%w: %s", ErrScrapeFailed, scraped.Err)
	}

	store, _ := models.ClassifyURL(scraped.URL)

	if existing, err := s.products.GetBySKU(store, scraped.SKU); err == nil {
		if err := s.products.UpdateTarget(existing.ID, target); err != nil {
			return nil, err
		}
		existing.TargetPrice = target
		return existing, nil
	} else if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, err
	}

	p := &models.Product{
		Store:       store,
		SKU:         scraped.SKU,
		URL:         scraped.URL,
		TargetPrice: target,
		ImageURL:    scraped.ImageURL,
		IsActive:    true,
	}
	if scraped.HasTitle() {
		p.Title = *scraped.Title
	} else if title, ok := models.TitleFromSlug(scraped.URL); ok {
		p.Title = title
	} else {
		p.Title = scraped.SKU
	}
	if scraped.HasPrice() {
		p.CurrentPrice = decimal.NewNullDecimal(*scraped.Price)
		p.LowestPrice = p.CurrentPrice
		p.HighestPrice = p.CurrentPrice
	}

	created, err := s.products.AddProduct(p)
	if err != nil {
		return nil, err
	}

	if scraped.HasPrice() {
		if err := s.products.AddObservation(created.ID, *scraped.Price, scraped.Available); err != nil {
			log.Error().Err(err).Int("product_id", created.ID).Msg("failed to record first observation")
		}
	}

	log.Info().
		Str("store", string(store)).
		Str("sku", created.SKU).
		Str("title", created.Title).
		Msg("product added")

	return created, nil
}

func (s *ProductService) Get(id int) (*models.Product, error) {
	return s.products.GetByID(id)
}

func (s *ProductService) List(activeOnly bool) ([]models.Product, error) {
	return s.products.GetAll(activeOnly)
}

func (s *ProductService) SetActive(id int, active bool) error {
	return s.products.SetActive(id, active)
}

func (s *ProductService) Delete(id int) error {
	return s.products.Delete(id)
}

func (s *ProductService) UpdateTarget(id int, targetPrice string) (*models.Product, error) {
	target, ok := scraper.ParsePrice(targetPrice)
	if !ok || !target.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}
	if err := s.products.UpdateTarget(id, target); err != nil {
		return nil, err
	}
	return s.products.GetByID(id)
}

// CheckPrice re-scrapes one product and folds the result into its
// stored prices and history. A scrape that yields no price leaves the
// stored prices untouched.
func (s *ProductService) CheckPrice(id int) (*models.Product, *models.ScrapedProduct, error) {
	p, err := s.products.GetByID(id)
	if err != nil {
		return nil, nil, err
	}

	scraped := s.scraper.ScrapeWithRetry(p.URL)
	if scraped.HasPrice() {
		bounds := models.UpdateBounds(models.Bounds{
			Lowest:  p.LowestPrice,
			Highest: p.HighestPrice,
		}, *scraped.Price)

		if err := s.products.UpdatePrices(p.ID, *scraped.Price, bounds); err != nil {
			return nil, scraped, err
		}
		if err := s.products.AddObservation(p.ID, *scraped.Price, scraped.Available); err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("failed to record observation")
		}

		p.CurrentPrice = decimal.NewNullDecimal(*scraped.Price)
		p.LowestPrice = bounds.Lowest
		p.HighestPrice = bounds.Highest
	}

	return p, scraped, nil
}

// CheckAllPrices re-scrapes every active product, strictly one at a
// time. A failure on one product never aborts the batch.
func (s *ProductService) CheckAllPrices() (*CheckResult, error) {
	products, err := s.products.GetAll(true)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Failures: map[string]string{}}
	for i := range products {
		p := &products[i]
		result.Checked++

		_, scraped, err := s.CheckPrice(p.ID)
		if err != nil {
			result.Failures[p.SKU] = err.Error()
			log.Error().Err(err).Str("sku", p.SKU).Msg("price check failed")
			continue
		}
		result.Scrapes = append(result.Scrapes, scraped)

		if scraped.HasPrice() {
			result.Updated++
			log.Info().
				Str("sku", p.SKU).
				Str("price", scraped.Price.String()).
				Msg("price updated")
		} else {
			result.Failures[p.SKU] = string(scraped.Outcome)
			log.Warn().
				Str("sku", p.SKU).
				Str("outcome", string(scraped.Outcome)).
				Msg("price check yielded no price")
		}
	}

	log.Info().
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Int("failed", len(result.Failures)).
		Msg("batch price check finished")

	return result, nil
}

// History returns the recorded observations for a product over the
// trailing days.
func (s *ProductService) History(id, days int) ([]models.PriceObservation, error) {
	if _, err := s.products.GetByID(id); err != nil {
		return nil, err
	}
	return s.products.GetObservations(id, days)
}

// Statistics computes the price distribution of one product for every
// configured window. Windows with fewer than two samples are omitted.
func (s *ProductService) Statistics(id int) ([]*models.PriceStatistics, error) {
	if _, err := s.products.GetByID(id); err != nil {
		return nil, err
	}

	observations, err := s.products.GetObservations(id, maxWindow(s.cfg.StatWindows))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []*models.PriceStatistics
	for _, window := range s.cfg.StatWindows {
		if st, ok := stats.Compute(observations, window, now); ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// BestDeals scans every active product and returns those whose current
// price sits at or below the 2-sigma threshold for at least one window,
// one entry per product, best window first.
func (s *ProductService) BestDeals() ([]models.DealClassification, error) {
	products, err := s.products.GetAll(true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var candidates []models.DealClassification
	for i := range products {
		p := &products[i]
		if !p.CurrentPrice.Valid {
			continue
		}

		observations, err := s.products.GetObservations(p.ID, maxWindow(s.cfg.StatWindows))
		if err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("failed to load observations")
			continue
		}

		for _, window := range s.cfg.StatWindows {
			st, ok := stats.Compute(observations, window, now)
			if !ok {
				continue
			}
			if level, ok := stats.Classify(p.CurrentPrice.Decimal, st); ok && level == 2 {
				candidates = append(candidates, stats.NewClassification(p, st, level))
			}
		}
	}

	return stats.BestDeals(candidates), nil
}

// ProductsAtTarget returns active products whose current price is at or
// below their target.
func (s *ProductService) ProductsAtTarget() ([]models.Product, error) {
	return s.products.ProductsAtTarget()
}

// BelowAverage returns active products whose current price sits at least
// thresholdPercent below their mean over the trailing window.
func (s *ProductService) BelowAverage(days int, thresholdPercent decimal.Decimal) ([]models.Product, error) {
	products, err := s.products.GetAll(true)
	if err != nil {
		return nil, err
	}

	factor := decimal.NewFromInt(1).Sub(thresholdPercent.Div(decimal.NewFromInt(100)))
	now := time.Now()
	var out []models.Product
	for i := range products {
		p := &products[i]
		if !p.CurrentPrice.Valid {
			continue
		}
		observations, err := s.products.GetObservations(p.ID, days)
		if err != nil {
			log.Error().Err(err).Int("product_id", p.ID).Msg("failed to load observations")
			continue
		}
		st, ok := stats.Compute(observations, days, now)
		if !ok {
			continue
		}
		if p.CurrentPrice.Decimal.LessThanOrEqual(st.Mean().Mul(factor)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func maxWindow(windows []int) int {
	max := 0
	for _, w := range windows {
		if w > max {
			max = w
		}
	}
	return max
}
