package models

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Store identifies a supported retail site family.
type Store string

const (
	StoreCarrefour Store = "carrefour"
	StoreZaffari   Store = "zaffari"
	StoreAmazon    Store = "amazon"
)

var (
	ErrUnrecognizedURL = errors.New("unrecognized product URL")
	ErrNoIdentifier    = errors.New("no product identifier in URL")
)

// storeDomains maps each store to the hostnames it accepts.
var storeDomains = map[Store][]string{
	StoreCarrefour: {"mercado.carrefour.com.br", "www.mercado.carrefour.com.br"},
	StoreZaffari:   {"zaffari.com.br", "www.zaffari.com.br"},
	StoreAmazon:    {"amazon.com.br", "www.amazon.com.br", "amzn.to"},
}

// classifyOrder fixes the evaluation order so overlapping substrings
// cannot flip the result between runs.
var classifyOrder = []Store{StoreCarrefour, StoreZaffari, StoreAmazon}

var (
	vtexSKUPatterns = []*regexp.Regexp{
		regexp.MustCompile(`-(\d+)/p`),
		regexp.MustCompile(`/(\d+)/p`),
	}
	asinPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`(?i)asin=([A-Z0-9]{10})`),
	}
	slugTrailingSKU = regexp.MustCompile(`-\d+$`)
)

// DisplayName returns the human-readable store name.
func (s Store) DisplayName() string {
	switch s {
	case StoreCarrefour:
		return "Carrefour"
	case StoreZaffari:
		return "Zaffari"
	case StoreAmazon:
		return "Amazon"
	}
	return string(s)
}

// BaseURL returns the canonical scheme+host for the store.
func (s Store) BaseURL() string {
	switch s {
	case StoreCarrefour:
		return "https://mercado.carrefour.com.br"
	case StoreZaffari:
		return "https://www.zaffari.com.br"
	case StoreAmazon:
		return "https://www.amazon.com.br"
	}
	return ""
}

// ClassifyURL decides which store a product URL belongs to. It never
// defaults silently: URLs outside every known domain set return
// ErrUnrecognizedURL.
func ClassifyURL(rawURL string) (Store, error) {
	lower := strings.ToLower(rawURL)
	for _, store := range classifyOrder {
		for _, domain := range storeDomains[store] {
			if strings.Contains(lower, domain) {
				return store, nil
			}
		}
	}
	return "", ErrUnrecognizedURL
}

// ValidateURL reports whether the URL has the store's product-page shape:
// an allow-listed host plus the product identifier. VTEX product pages end
// in a /p segment; paths that merely contain "/p" somewhere (category and
// campaign pages) do not qualify.
func ValidateURL(store Store, rawURL string) bool {
	parsed, err := url.Parse(NormalizeURL(store, rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	hostOK := false
	for _, domain := range storeDomains[store] {
		if host == domain {
			hostOK = true
			break
		}
	}
	if !hostOK {
		return false
	}
	switch store {
	case StoreCarrefour, StoreZaffari:
		if !strings.HasSuffix(strings.TrimRight(parsed.Path, "/"), "/p") {
			return false
		}
		_, ok := ExtractSKU(store, rawURL)
		return ok
	case StoreAmazon:
		_, ok := ExtractSKU(store, rawURL)
		return ok
	}
	return false
}

// ExtractSKU pulls the site-local product identifier out of a URL.
// VTEX stores keep the numeric SKU right before the trailing /p marker;
// Amazon uses the 10-character ASIN. Invalid shapes yield ("", false),
// never an error.
func ExtractSKU(store Store, rawURL string) (string, bool) {
	switch store {
	case StoreCarrefour, StoreZaffari:
		for _, re := range vtexSKUPatterns {
			if m := re.FindStringSubmatch(rawURL); m != nil {
				return m[1], true
			}
		}
	case StoreAmazon:
		for _, re := range asinPatterns {
			if m := re.FindStringSubmatch(rawURL); m != nil {
				return strings.ToUpper(m[1]), true
			}
		}
	}
	return "", false
}

// NormalizeURL returns a canonical form of the product URL. Amazon URLs
// collapse to BASE/dp/ASIN; other stores just gain a scheme when missing.
func NormalizeURL(store Store, rawURL string) string {
	if store == StoreAmazon {
		if asin, ok := ExtractSKU(store, rawURL); ok {
			return store.BaseURL() + "/dp/" + asin
		}
	}
	if !strings.HasPrefix(rawURL, "http") {
		return "https://" + rawURL
	}
	return rawURL
}

// TitleFromSlug recovers a display title from a VTEX URL slug, used as a
// last-resort title when the page itself yields nothing.
func TitleFromSlug(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.Trim(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/p")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	slug := slugTrailingSKU.ReplaceAllString(path, "")
	if slug == "" {
		return "", false
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " "), true
}
