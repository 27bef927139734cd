package scraper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Document is a parsed product page. Extraction strategies are pure
// functions over it: they read, never mutate, and report misses as a
// false second return instead of errors.
type Document struct {
	doc  *goquery.Document
	html string
	url  string
}

// NewDocument parses raw HTML into a Document.
func NewDocument(html, url string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{doc: doc, html: html, url: url}, nil
}

// URL returns the page URL the document was fetched from.
func (d *Document) URL() string {
	return d.url
}

// Find exposes the underlying selection for strategies that need to walk
// structure rather than match a single selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the trimmed text of the first element matching any of the
// selectors, tried in order.
func (d *Document) Text(selectors ...string) (string, bool) {
	for _, sel := range selectors {
		node := d.doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text, true
		}
	}
	return "", false
}

// Attr returns the first non-empty attribute value among names on the
// first element matching any of the selectors.
func (d *Document) Attr(attrs []string, selectors ...string) (string, bool) {
	for _, sel := range selectors {
		node := d.doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range attrs {
			if value, ok := node.Attr(attr); ok && value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// PageText returns the whole visible page text, lowercased, for
// availability-marker searches.
func (d *Document) PageText() string {
	return strings.ToLower(d.doc.Text())
}

// jsonLDOffers matches the offer shapes VTEX and schema.org emit: a
// single offers object, an AggregateOffer, or a list of offers.
type jsonLDOffers struct {
	Price    json.Number `json:"price"`
	LowPrice json.Number `json:"lowPrice"`
}

type jsonLDProduct struct {
	Type   string          `json:"@type"`
	Offers json.RawMessage `json:"offers"`
}

// JSONLDPrice walks every ld+json block looking for a Product offer
// price. Malformed blocks are skipped, never fatal.
func (d *Document) JSONLDPrice() (decimal.Decimal, bool) {
	var price decimal.Decimal
	found := false

	d.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()

		var single jsonLDProduct
		if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type == "Product" {
			if p, ok := offersPrice(single.Offers); ok {
				price, found = p, true
				return false
			}
		}

		var list []jsonLDProduct
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				if item.Type != "Product" {
					continue
				}
				if p, ok := offersPrice(item.Offers); ok {
					price, found = p, true
					return false
				}
			}
		}
		return true
	})

	return price, found
}

func offersPrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Decimal{}, false
	}

	var obj jsonLDOffers
	if err := json.Unmarshal(raw, &obj); err == nil {
		if p, ok := numberPrice(obj.Price); ok {
			return p, true
		}
		if p, ok := numberPrice(obj.LowPrice); ok {
			return p, true
		}
	}

	var list []jsonLDOffers
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return numberPrice(list[0].Price)
	}

	return decimal.Decimal{}, false
}

func numberPrice(n json.Number) (decimal.Decimal, bool) {
	if n == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(n.String())
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, false
	}
	return value, true
}

// Script-state key patterns, most specific first. VTEX pages embed the
// offer in a __STATE__ blob whose price keys vary by theme version.
var statePricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"sellingPrice"\s*:\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`"Price"\s*:\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`"price"\s*:\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`"bestPrice"\s*:\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`"spotPrice"\s*:\s*(\d+(?:\.\d+)?)`),
}

// ScriptStatePrice scrapes a price out of inline script payloads when
// the rendered DOM is missing it. State blobs store prices in cents as
// often as in currency units, so the minor-unit correction and the
// plausibility filter both apply.
func (d *Document) ScriptStatePrice(limits PriceRange) (decimal.Decimal, bool) {
	for _, pattern := range statePricePatterns {
		m := pattern.FindStringSubmatch(d.html)
		if m == nil {
			continue
		}
		price, ok := ParsePrice(m[1])
		if !ok {
			continue
		}
		price = limits.CorrectMinorUnits(price)
		if limits.Plausible(price) {
			return price.Round(2), true
		}
	}
	return decimal.Decimal{}, false
}
