package scraper

import (
	"strings"

	"deolho/models"

	"github.com/shopspring/decimal"
)

// Extraction strategies are small pure functions over a Document. Each
// one either produces a value or reports a miss; a chain tries its
// strategies in priority order and the first hit short-circuits the
// rest. A chain where everything misses leaves the field absent, which
// is not by itself an error.
type (
	textStrategy  func(*Document) (string, bool)
	priceStrategy func(*Document) (decimal.Decimal, bool)

	// Availability strategies also see whether a price was already
	// extracted: the Portuguese out-of-stock markers appear in
	// recommendation shelves too, so they only count when the page
	// yielded no price.
	availStrategy func(doc *Document, hasPrice bool) (available bool, ok bool)
)

// fieldChains is the full strategy table for one store.
type fieldChains struct {
	title         []textStrategy
	price         []priceStrategy
	originalPrice []priceStrategy
	image         []textStrategy
	availability  []availStrategy
}

// buildChains assembles the per-store strategy tables. Dispatch is by
// data, not by type: adding a store means adding a table entry.
func buildChains(limits PriceRange) map[models.Store]fieldChains {
	return map[models.Store]fieldChains{
		models.StoreCarrefour: carrefourChains(limits),
		models.StoreZaffari:   zaffariChains(limits),
		models.StoreAmazon:    amazonChains(limits),
	}
}

func firstText(doc *Document, chain []textStrategy) (string, bool) {
	for _, strategy := range chain {
		if value, ok := strategy(doc); ok {
			return value, true
		}
	}
	return "", false
}

func firstPrice(doc *Document, chain []priceStrategy) (decimal.Decimal, bool) {
	for _, strategy := range chain {
		if value, ok := strategy(doc); ok {
			return value, true
		}
	}
	return decimal.Decimal{}, false
}

func firstAvailability(doc *Document, chain []availStrategy, hasPrice bool) (bool, bool) {
	for _, strategy := range chain {
		if value, ok := strategy(doc, hasPrice); ok {
			return value, true
		}
	}
	return true, false
}

// selectorText builds a strategy matching the first selector whose text
// is at least minLen characters long.
func selectorText(minLen int, selectors ...string) textStrategy {
	return func(doc *Document) (string, bool) {
		for _, sel := range selectors {
			node := doc.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			text := strings.TrimSpace(node.Text())
			if len(text) >= minLen {
				return text, true
			}
		}
		return "", false
	}
}

// selectorPrice builds a strategy that parses the first selector text
// yielding a positive price.
func selectorPrice(selectors ...string) priceStrategy {
	return func(doc *Document) (decimal.Decimal, bool) {
		for _, sel := range selectors {
			node := doc.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			if price, ok := ParsePrice(node.Text()); ok && price.IsPositive() {
				return price, true
			}
		}
		return decimal.Decimal{}, false
	}
}

// jsonLDPrice reads the embedded schema.org Product offer.
func jsonLDPrice() priceStrategy {
	return func(doc *Document) (decimal.Decimal, bool) {
		return doc.JSONLDPrice()
	}
}

// scriptStatePrice scans inline script payloads as a last resort.
func scriptStatePrice(limits PriceRange) priceStrategy {
	return func(doc *Document) (decimal.Decimal, bool) {
		return doc.ScriptStatePrice(limits)
	}
}

// imageAttr builds a strategy reading the first non-empty attribute on
// the first matching element.
func imageAttr(attrs []string, selectors ...string) textStrategy {
	return func(doc *Document) (string, bool) {
		return doc.Attr(attrs, selectors...)
	}
}

// unavailableSelectors flags the product unavailable when any of the
// dedicated out-of-stock containers is present.
func unavailableSelectors(selectors ...string) availStrategy {
	return func(doc *Document, _ bool) (bool, bool) {
		for _, sel := range selectors {
			if doc.Find(sel).Length() > 0 {
				return false, true
			}
		}
		return false, false
	}
}

// unavailableMarkers flags the product unavailable when an out-of-stock
// phrase appears anywhere in the page text and no price was extracted.
func unavailableMarkers(markers ...string) availStrategy {
	return func(doc *Document, hasPrice bool) (bool, bool) {
		if hasPrice {
			return false, false
		}
		text := doc.PageText()
		for _, marker := range markers {
			if strings.Contains(text, marker) {
				return false, true
			}
		}
		return false, false
	}
}

// availabilityLabel inspects a dedicated availability element for
// out-of-stock wording, regardless of extracted price.
func availabilityLabel(selector string, markers ...string) availStrategy {
	return func(doc *Document, _ bool) (bool, bool) {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			return false, false
		}
		text := strings.ToLower(strings.TrimSpace(node.Text()))
		if text == "" {
			return false, false
		}
		for _, marker := range markers {
			if strings.Contains(text, marker) {
				return false, true
			}
		}
		return true, true
	}
}
