package scraper

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"deolho/models"
)

// rewriteTransport redirects every request to the test server while the
// request URL keeps its original store host, so URL classification still
// sees the real domains.
type rewriteTransport struct {
	target   *url.URL
	requests *atomic.Int64
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.requests.Add(1)
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestScraper(t *testing.T, handler http.Handler) (*Scraper, *atomic.Int64) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	var requests atomic.Int64
	client := &http.Client{Transport: &rewriteTransport{target: target, requests: &requests}}

	return New(Options{
		HTTPClient:          client,
		Rand:                rand.New(rand.NewSource(1)),
		BlockedRetryBackoff: time.Millisecond,
		BlockedRetryCount:   1,
	}), &requests
}

const carrefourPage = `<!DOCTYPE html>
<html><body>
<h1 class="productName">Arroz Tio João Branco 1kg</h1>
<span class="text-blue-royal font-bold text-xl">R$ 39,60</span>
<span class="skuListPrice">R$ 45,90</span>
<div class="vtex-store-components-3-x-productImage"><img src="https://example.test/arroz.jpg"></div>
</body></html>`

func TestScrapeExtractsProduct(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(carrefourPage))
	}))

	result := sc.Scrape("https://mercado.carrefour.com.br/arroz-tio-joao-branco-1kg-185223/p")

	if result.Outcome != models.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success (err: %s)", result.Outcome, result.Err)
	}
	if result.SKU != "185223" {
		t.Errorf("sku = %q, want 185223", result.SKU)
	}
	if !result.HasTitle() || *result.Title != "Arroz Tio João Branco 1kg" {
		t.Errorf("title = %v", result.Title)
	}
	if !result.HasPrice() || result.Price.String() != "39.6" {
		t.Errorf("price = %v, want 39.6", result.Price)
	}
	if result.OriginalPrice == nil || result.OriginalPrice.String() != "45.9" {
		t.Errorf("original price = %v, want 45.9", result.OriginalPrice)
	}
	if result.ImageURL == nil || *result.ImageURL != "https://example.test/arroz.jpg" {
		t.Errorf("image = %v", result.ImageURL)
	}
	if !result.Available {
		t.Error("product should be available")
	}
}

func TestScrapePartialWhenPriceMissing(t *testing.T) {
	page := `<html><body><h1 class="productName">Feijão Preto 1kg</h1></body></html>`
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	result := sc.Scrape("https://mercado.carrefour.com.br/feijao-preto-1kg-99/p")

	if result.Outcome != models.OutcomePartial {
		t.Fatalf("outcome = %s, want partial", result.Outcome)
	}
	if result.Err == "" {
		t.Error("partial result should carry an advisory error")
	}
	if !result.HasTitle() {
		t.Error("title should survive a missing price")
	}
}

func TestScrapeMarksUnavailable(t *testing.T) {
	page := `<html><body>
<h1 class="productName">Azeite Extra Virgem 500ml</h1>
<div>Produto indisponível no momento</div>
</body></html>`
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))

	result := sc.Scrape("https://mercado.carrefour.com.br/azeite-extra-virgem-500ml-42/p")

	if result.Available {
		t.Error("out-of-stock marker without price should mark unavailable")
	}
}

func TestScrapeBlocked(t *testing.T) {
	sc, requests := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	result := sc.Scrape("https://mercado.carrefour.com.br/arroz-1/p")

	if result.Outcome != models.OutcomeBlocked {
		t.Fatalf("outcome = %s, want blocked", result.Outcome)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestScrapeWithRetryRetriesBlockedOnce(t *testing.T) {
	var hits atomic.Int64
	sc, requests := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(carrefourPage))
	}))

	result := sc.ScrapeWithRetry("https://mercado.carrefour.com.br/arroz-tio-joao-branco-1kg-185223/p")

	if result.Outcome != models.OutcomeSuccess {
		t.Fatalf("outcome = %s, want success after retry", result.Outcome)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestScrapeWithRetryStillBlockedIsTerminal(t *testing.T) {
	sc, requests := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	result := sc.ScrapeWithRetry("https://mercado.carrefour.com.br/arroz-1/p")

	if result.Outcome != models.OutcomeBlocked {
		t.Fatalf("outcome = %s, want blocked", result.Outcome)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2 (initial + one retry)", got)
	}
}

func TestScrapeUnrecognizedURLSkipsNetwork(t *testing.T) {
	sc, requests := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(carrefourPage))
	}))

	result := sc.Scrape("https://www.americanas.com.br/produto/12345")

	if result.Outcome != models.OutcomeUnrecognizedURL {
		t.Fatalf("outcome = %s, want unrecognized_url", result.Outcome)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestScrapeRejectsNonProductPath(t *testing.T) {
	sc, requests := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(carrefourPage))
	}))

	// The host is right but the path is a campaign page, not a product
	// page. It must fail validation, not alias onto a tracked product.
	for _, url := range []string{
		"https://mercado.carrefour.com.br/promocoes",
		"https://www.zaffari.com.br/ofertas/p",
	} {
		result := sc.Scrape(url)
		if result.Outcome != models.OutcomeUnrecognizedURL {
			t.Errorf("Scrape(%q) outcome = %s, want unrecognized_url", url, result.Outcome)
		}
		if result.SKU != "" {
			t.Errorf("Scrape(%q) sku = %q, want empty", url, result.SKU)
		}
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestScrapeMultipleNeverAborts(t *testing.T) {
	var hits atomic.Int64
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First URL stays blocked through its retry, second succeeds.
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(carrefourPage))
	}))

	results := sc.ScrapeMultiple([]string{
		"https://mercado.carrefour.com.br/bloqueado-1/p",
		"https://mercado.carrefour.com.br/arroz-tio-joao-branco-1kg-185223/p",
	})

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Outcome != models.OutcomeBlocked {
		t.Errorf("first outcome = %s, want blocked", results[0].Outcome)
	}
	if results[1].Outcome != models.OutcomeSuccess {
		t.Errorf("second outcome = %s, want success", results[1].Outcome)
	}
}

func TestScrapeTransportError(t *testing.T) {
	sc, _ := newTestScraper(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	result := sc.Scrape("https://mercado.carrefour.com.br/sumiu-7/p")

	if result.Outcome != models.OutcomeTransportError {
		t.Fatalf("outcome = %s, want transport_error", result.Outcome)
	}
}
