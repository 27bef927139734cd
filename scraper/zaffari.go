package scraper

// zaffariChains covers zaffari.com.br, another VTEX storefront. The
// zaffarilab theme selector leads because the stock VTEX classes are
// also present on recommendation shelves there.
func zaffariChains(limits PriceRange) fieldChains {
	return fieldChains{
		title: []textStrategy{
			selectorText(4,
				".vtex-store-components-3-x-productBrand",
				".vtex-store-components-3-x-productNameContainer",
				".productName",
				"h1.product-name",
				".product-title",
				`h1[class*="productName"]`,
				".vtex-product-summary-2-x-productBrand",
				"h1",
			),
		},
		price: []priceStrategy{
			selectorPrice(
				".zaffarilab-zaffari-produto-1-x-ProductPriceSellingPriceValue",
				".vtex-product-price-1-x-sellingPrice",
				".vtex-product-price-1-x-currencyContainer",
				".vtex-store-components-3-x-sellingPrice",
				".skuBestPrice",
				".price-best-price",
				".product-price .best-price",
				`[class*="sellingPrice"]`,
				`[class*="bestPrice"]`,
				".price",
			),
			jsonLDPrice(),
			scriptStatePrice(limits),
		},
		originalPrice: []priceStrategy{
			selectorPrice(
				".vtex-product-price-1-x-listPrice",
				".vtex-store-components-3-x-listPrice",
				".skuListPrice",
				".list-price",
				".old-price",
				`[class*="listPrice"]`,
			),
		},
		image: []textStrategy{
			imageAttr([]string{"src", "data-src"},
				".vtex-store-components-3-x-productImage img",
				".product-image img",
				`[class*="productImage"] img`,
				".main-image img",
				`img[class*="product"]`,
			),
		},
		availability: []availStrategy{
			unavailableSelectors(
				".vtex-store-components-3-x-unavailableContainer",
				".product-unavailable",
			),
			unavailableMarkers("indisponível", "esgotado"),
		},
	}
}
