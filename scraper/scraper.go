package scraper

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"deolho/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Options configures a Scraper. Zero values mean sensible defaults,
// except Rand, which must be supplied so the caller controls seeding.
type Options struct {
	DelayMin time.Duration
	DelayMax time.Duration
	Timeout  time.Duration

	// Plausible price window applied by the script-state strategies.
	Limits PriceRange

	// Retry policy for blocked responses during batch scrapes.
	BlockedRetryBackoff time.Duration
	BlockedRetryCount   int

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Rand drives the inter-request jitter and user-agent rotation.
	Rand *rand.Rand
}

// Scraper runs the extraction pipeline: classify URL, fetch, run the
// store's strategy chains per field, assemble a ScrapedProduct. One
// fetch is in flight at a time; delays are plain blocking sleeps. Not
// safe for concurrent use, and deliberately so.
type Scraper struct {
	client *Client
	chains map[models.Store]fieldChains
	opts   Options
	rnd    *rand.Rand
}

// New builds a Scraper from options.
func New(opts Options) *Scraper {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Limits.Max.IsZero() {
		opts.Limits = PriceRange{
			Min: decimal.RequireFromString("0.01"),
			Max: decimal.RequireFromString("100000"),
		}
	}
	if opts.BlockedRetryCount == 0 {
		opts.BlockedRetryCount = 1
	}

	return &Scraper{
		client: NewClient(httpClient, rnd),
		chains: buildChains(opts.Limits),
		opts:   opts,
		rnd:    rnd,
	}
}

// Scrape fetches one product page and extracts its fields. All expected
// failure modes come back as data in the result, tagged by Outcome;
// nothing here panics or returns an error value.
func (s *Scraper) Scrape(rawURL string) *models.ScrapedProduct {
	store, err := models.ClassifyURL(rawURL)
	if err != nil || !models.ValidateURL(store, rawURL) {
		return &models.ScrapedProduct{
			URL:     rawURL,
			Err:     "unrecognized product URL",
			Outcome: models.OutcomeUnrecognizedURL,
		}
	}

	// ValidateURL already demanded an identifier; a miss here means the
	// URL shape is not one we can persist a product under.
	sku, ok := models.ExtractSKU(store, rawURL)
	if !ok {
		return &models.ScrapedProduct{
			URL:     rawURL,
			Err:     models.ErrNoIdentifier.Error(),
			Outcome: models.OutcomeUnrecognizedURL,
		}
	}
	url := models.NormalizeURL(store, rawURL)
	result := &models.ScrapedProduct{SKU: sku, URL: url, Available: true}

	s.delay()

	html, err := s.client.Fetch(url)
	if err != nil {
		if errors.Is(err, ErrBlocked) {
			result.Err = err.Error()
			result.Outcome = models.OutcomeBlocked
			return result
		}
		result.Err = err.Error()
		result.Outcome = models.OutcomeTransportError
		return result
	}

	doc, err := NewDocument(html, url)
	if err != nil {
		result.Err = err.Error()
		result.Outcome = models.OutcomeFailed
		return result
	}

	s.extract(doc, store, result)
	s.classify(result)
	return result
}

// extract runs the store's strategy chains and fills the result.
func (s *Scraper) extract(doc *Document, store models.Store, result *models.ScrapedProduct) {
	chains := s.chains[store]

	if title, ok := firstText(doc, chains.title); ok {
		result.Title = &title
	}
	if price, ok := firstPrice(doc, chains.price); ok {
		result.Price = &price
	}
	if original, ok := firstPrice(doc, chains.originalPrice); ok {
		result.OriginalPrice = &original
	}
	if image, ok := firstText(doc, chains.image); ok {
		result.ImageURL = &image
	}

	// Remote API fallback, price field only: VTEX stores expose the
	// catalog search API when the page itself is rendered client-side.
	if result.Price == nil && (store == models.StoreCarrefour || store == models.StoreZaffari) {
		if title, price, ok := vtexCatalogOffer(s.client, store.BaseURL(), result.SKU); ok {
			result.Price = &price
			if result.Title == nil && title != "" {
				result.Title = &title
			}
		}
	}

	// URL slug as last-resort title for VTEX stores.
	if result.Title == nil && (store == models.StoreCarrefour || store == models.StoreZaffari) {
		if title, ok := models.TitleFromSlug(result.URL); ok {
			result.Title = &title
		}
	}

	if available, ok := firstAvailability(doc, chains.availability, result.Price != nil); ok {
		result.Available = available
	}

	if store == models.StoreAmazon {
		if rating, ok := amazonRating(doc); ok {
			result.Rating = &rating
		}
		if count, ok := amazonReviewCount(doc); ok {
			result.ReviewCount = &count
		}
	}
}

// classify assigns the outcome tag from what extraction produced.
func (s *Scraper) classify(result *models.ScrapedProduct) {
	switch {
	case result.HasTitle() && result.HasPrice():
		result.Outcome = models.OutcomeSuccess
	case result.HasTitle():
		result.Err = "could not extract price; page may be rendered client-side or blocking"
		result.Outcome = models.OutcomePartial
	case result.HasPrice():
		result.Err = "could not extract title; page structure may have changed"
		result.Outcome = models.OutcomePartial
	default:
		result.Err = "could not extract product information; page structure may have changed"
		result.Outcome = models.OutcomeFailed
	}
}

// ScrapeWithRetry applies the blocked-retry policy to a single URL:
// after a blocked response, wait the configured backoff and try again,
// up to BlockedRetryCount extra attempts. A still-blocked result is
// terminal for this URL.
func (s *Scraper) ScrapeWithRetry(rawURL string) *models.ScrapedProduct {
	result := s.Scrape(rawURL)
	for attempt := 0; attempt < s.opts.BlockedRetryCount && result.Outcome == models.OutcomeBlocked; attempt++ {
		log.Warn().Str("url", rawURL).Dur("backoff", s.opts.BlockedRetryBackoff).Msg("blocked, backing off before retry")
		time.Sleep(s.opts.BlockedRetryBackoff)
		result = s.Scrape(rawURL)
	}
	return result
}

// ScrapeMultiple scrapes URLs strictly in sequence with the usual
// inter-request delay between items. It always runs to completion:
// per-item failures, including terminal blocked outcomes, never abort
// the batch.
func (s *Scraper) ScrapeMultiple(urls []string) []*models.ScrapedProduct {
	results := make([]*models.ScrapedProduct, 0, len(urls))
	for i, url := range urls {
		log.Info().Int("current", i+1).Int("total", len(urls)).Msg("scraping product")
		results = append(results, s.ScrapeWithRetry(url))

		if i < len(urls)-1 {
			s.delay()
		}
	}
	return results
}

// delay sleeps for a duration drawn uniformly from [DelayMin, DelayMax].
func (s *Scraper) delay() {
	min, max := s.opts.DelayMin, s.opts.DelayMax
	if max <= min {
		if min > 0 {
			time.Sleep(min)
		}
		return
	}
	jitter := time.Duration(s.rnd.Int63n(int64(max - min)))
	time.Sleep(min + jitter)
}
