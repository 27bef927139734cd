package scraper

// carrefourChains covers mercado.carrefour.com.br, a VTEX storefront
// with a custom theme. The themed blue-royal price badge is the current
// price shown to shoppers; the generic VTEX selectors trail it because
// they sometimes surface the undiscounted list price.
func carrefourChains(limits PriceRange) fieldChains {
	return fieldChains{
		title: []textStrategy{
			selectorText(4,
				".vtex-store-components-3-x-productBrand",
				".vtex-store-components-3-x-productNameContainer",
				`h1[class*="productName"]`,
				".productName",
				"h1.product-name",
				".product-title",
				"h1",
			),
		},
		price: []priceStrategy{
			selectorPrice(
				"span.text-blue-royal.font-bold.text-xl",
				`span[class*="text-blue-royal"][class*="font-bold"]`,
				`span[class*="blue-royal"]`,
				`[class*="sellingPrice"] [class*="currencyInteger"]`,
				`[class*="sellingPriceValue"]`,
				`[class*="ProductPrice"] [class*="Value"]`,
				".vtex-product-price-1-x-sellingPriceValue",
				".skuBestPrice",
				".price-best-price",
				`[data-testid="price"]`,
			),
			jsonLDPrice(),
			scriptStatePrice(limits),
		},
		originalPrice: []priceStrategy{
			selectorPrice(
				".vtex-product-price-1-x-listPrice",
				".skuListPrice",
				`[class*="listPrice"]`,
			),
		},
		image: []textStrategy{
			imageAttr([]string{"src", "data-src"},
				".vtex-store-components-3-x-productImage img",
				`[class*="productImage"] img`,
				`img[class*="product"]`,
			),
		},
		availability: []availStrategy{
			unavailableMarkers("indisponível", "esgotado"),
		},
	}
}
