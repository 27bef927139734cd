package scraper

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// vtexProduct is the slice of the catalog search response we care
// about: the first seller's commercial offer on the first item.
// "commertialOffer" is VTEX's own spelling.
type vtexProduct struct {
	ProductName string `json:"productName"`
	Name        string `json:"name"`
	Items       []struct {
		Sellers []struct {
			CommertialOffer struct {
				Price     json.Number `json:"Price"`
				SpotPrice json.Number `json:"spotPrice"`
			} `json:"commertialOffer"`
		} `json:"sellers"`
	} `json:"items"`
}

// vtexCatalogOffer queries the store's VTEX catalog API for a SKU when
// nothing in the page yielded a price. The endpoint shape varies by
// store configuration, so each known shape is tried until one returns a
// parseable offer.
func vtexCatalogOffer(client *Client, baseURL, sku string) (title string, price decimal.Decimal, ok bool) {
	endpoints := []string{
		fmt.Sprintf("%s/api/catalog_system/pub/products/search?fq=productId:%s", baseURL, sku),
		fmt.Sprintf("%s/api/catalog_system/pub/products/search?fq=skuId:%s", baseURL, sku),
		fmt.Sprintf("%s/api/catalog_system/pub/products/search/%s", baseURL, sku),
	}

	for _, endpoint := range endpoints {
		body, err := client.FetchJSON(endpoint)
		if err != nil {
			continue
		}

		var products []vtexProduct
		if err := json.Unmarshal(body, &products); err != nil || len(products) == 0 {
			continue
		}

		product := products[0]
		if product.ProductName != "" {
			title = product.ProductName
		} else {
			title = product.Name
		}

		if len(product.Items) == 0 || len(product.Items[0].Sellers) == 0 {
			continue
		}
		offer := product.Items[0].Sellers[0].CommertialOffer
		if p, found := numberPrice(offer.Price); found {
			return title, p, true
		}
		if p, found := numberPrice(offer.SpotPrice); found {
			return title, p, true
		}
	}

	return "", decimal.Decimal{}, false
}
