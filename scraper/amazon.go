package scraper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Labels marking the one-time-purchase option inside the buy box.
var oneTimeLabels = []string{"compra única", "one-time purchase"}

// Markers for the subscription widget. Their presence means the page
// carries both a subscription price and a one-time price, so the
// generic selector ladder cannot be trusted to pick the right one.
var subscriptionMarkers = []string{"programe e poupe", "subscribe & save"}

var (
	ratingPattern = regexp.MustCompile(`(\d+[,.]?\d*)`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// amazonChains covers amazon.com.br. The offscreen price ladder walks
// from the current price-to-pay markup down to the legacy priceblock
// ids still served on some listings.
func amazonChains(limits PriceRange) fieldChains {
	return fieldChains{
		title: []textStrategy{
			selectorText(1, "#productTitle"),
		},
		price: []priceStrategy{
			amazonBuyBoxPrice,
			selectorPrice(
				"#corePriceDisplay_desktop_feature_div .priceToPay .a-offscreen",
				"#corePrice_desktop_feature_div .priceToPay .a-offscreen",
				".priceToPay .a-offscreen",
				"#apex_offerDisplay_desktop .a-price .a-offscreen",
				"#apex_desktop .a-price .a-offscreen",
				"#corePriceDisplay_desktop_feature_div .a-price .a-offscreen",
				"#corePrice_feature_div .a-price .a-offscreen",
				"#priceblock_ourprice",
				"#priceblock_dealprice",
				"#priceblock_saleprice",
				"#centerCol .a-price .a-offscreen",
				"#buybox .a-price .a-offscreen",
			),
			amazonWholeFractionPrice,
		},
		originalPrice: []priceStrategy{
			selectorPrice(
				".a-text-price .a-offscreen",
				"#listPrice",
				".priceBlockStrikePriceString",
			),
		},
		image: []textStrategy{
			imageAttr([]string{"src", "data-old-hires"},
				"#landingImage",
				"#imgBlkFront",
				"#main-image",
				".a-dynamic-image",
			),
		},
		availability: []availStrategy{
			availabilityLabel("#availability", "indisponível", "unavailable"),
		},
	}
}

// amazonBuyBoxPrice disambiguates the one-time-purchase price from the
// subscription price when the subscription widget is present. It first
// looks for the labeled one-time option and searches its structural
// ancestry for the nearest price; failing that it falls back to the
// higher of the two lowest distinct prices in the buy-box region, which
// approximates excluding the discounted subscription offer. Best-effort:
// with three or more distinct prices there is no structural guarantee
// the right one wins.
func amazonBuyBoxPrice(doc *Document) (decimal.Decimal, bool) {
	if !hasSubscriptionWidget(doc) {
		return decimal.Decimal{}, false
	}

	if price, ok := labeledAnchorPrice(doc); ok {
		return price, true
	}

	return buyBoxDistinctPrice(doc)
}

func hasSubscriptionWidget(doc *Document) bool {
	if doc.Find("#snsAccordionRowMiddle, #sns-base-price, #newAccordionRow_1").Length() > 0 {
		return true
	}
	text := doc.PageText()
	for _, marker := range subscriptionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// labeledAnchorPrice finds the element carrying the one-time-purchase
// label and walks its ancestors outward until one contains a parseable
// offscreen price.
func labeledAnchorPrice(doc *Document) (decimal.Decimal, bool) {
	var price decimal.Decimal
	found := false

	doc.Find("span, label, h5, a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		// Long text means we matched a container, not the label itself.
		if text == "" || len(text) > 40 {
			return true
		}
		labeled := false
		for _, label := range oneTimeLabels {
			if strings.Contains(text, label) {
				labeled = true
				break
			}
		}
		if !labeled {
			return true
		}

		for parents := s.Parent(); parents.Length() > 0; parents = parents.Parent() {
			node := parents.Find(".a-price .a-offscreen, .a-offscreen").First()
			if node.Length() == 0 {
				continue
			}
			if p, ok := ParsePrice(node.Text()); ok && p.IsPositive() {
				price, found = p, true
				return false
			}
		}
		return true
	})

	return price, found
}

// buyBoxDistinctPrice collects the distinct prices in the buy-box
// region and returns the higher of the two lowest, excluding struck-out
// list prices.
func buyBoxDistinctPrice(doc *Document) (decimal.Decimal, bool) {
	region := doc.Find("#buybox, #apex_desktop, #corePriceDisplay_desktop_feature_div")
	if region.Length() == 0 {
		return decimal.Decimal{}, false
	}

	seen := map[string]bool{}
	var prices []decimal.Decimal
	region.Find(".a-offscreen").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(".a-text-price").Length() > 0 {
			return
		}
		p, ok := ParsePrice(s.Text())
		if !ok || !p.IsPositive() {
			return
		}
		key := p.String()
		if !seen[key] {
			seen[key] = true
			prices = append(prices, p)
		}
	})

	if len(prices) == 0 {
		return decimal.Decimal{}, false
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	if len(prices) == 1 {
		return prices[0], true
	}
	return prices[1], true
}

// amazonWholeFractionPrice reassembles a price split across the
// a-price-whole and a-price-fraction spans.
func amazonWholeFractionPrice(doc *Document) (decimal.Decimal, bool) {
	container := doc.Find("#corePriceDisplay_desktop_feature_div .a-price").First()
	if container.Length() == 0 {
		container = doc.Find(".priceToPay").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}

	whole := container.Find(".a-price-whole").First()
	if whole.Length() == 0 {
		return decimal.Decimal{}, false
	}
	text := strings.NewReplacer(".", "", ",", "").Replace(strings.TrimSpace(whole.Text()))
	if fraction := container.Find(".a-price-fraction").First(); fraction.Length() > 0 {
		text += "," + strings.TrimSpace(fraction.Text())
	}

	price, ok := ParsePrice(text)
	if !ok || !price.IsPositive() {
		return decimal.Decimal{}, false
	}
	return price, true
}

// amazonRating extracts the star rating, when present.
func amazonRating(doc *Document) (float64, bool) {
	var text string
	if node := doc.Find("#acrPopover").First(); node.Length() > 0 {
		text, _ = node.Attr("title")
	}
	if text == "" {
		if value, ok := doc.Text(".a-icon-star .a-icon-alt"); ok {
			text = value
		}
	}
	m := ratingPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	rating, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// amazonReviewCount extracts the review count, when present.
func amazonReviewCount(doc *Document) (int, bool) {
	text, ok := doc.Text("#acrCustomerReviewText")
	if !ok {
		return 0, false
	}
	m := digitsPattern.FindString(strings.ReplaceAll(text, ".", ""))
	if m == "" {
		return 0, false
	}
	count, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return count, true
}
