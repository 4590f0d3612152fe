package catalog

import (
	"fmt"
	"time"
)

// DefaultImageBase is the catalog image host used for constructed seeds
const DefaultImageBase = "https://images.openfoodfacts.org"

// minSeedBarcodeLength is the identifier length that implies a
// structured catalog image path (EAN-13 style barcodes)
const minSeedBarcodeLength = 12

// DataSourcePriceAggregation tags products populated by the price
// aggregation pass
const DataSourcePriceAggregation = "price-aggregation"

// Merge groups raw price records by product identifier and folds them
// into canonical products. Within one pass the first-seen name,
// manufacturer and category for an identifier are retained; a provider
// seen again for the same identifier overwrites its own price entry,
// while a new provider appends one. Ordering of the result follows
// first appearance in the input.
func Merge(records []RawPriceRecord, now time.Time) []CanonicalProduct {
	byID := make(map[string]*CanonicalProduct)
	var order []string

	for _, rec := range records {
		product, seen := byID[rec.ID]
		if !seen {
			product = &CanonicalProduct{
				ID:           rec.ID,
				Name:         rec.Name,
				Manufacturer: rec.Manufacturer,
				Category:     rec.Category,
				Image:        ImageSeed(rec.ID),
				LastUpdated:  now,
				DataSource:   DataSourcePriceAggregation,
			}
			byID[rec.ID] = product
			order = append(order, rec.ID)
		}

		entry := ProviderPrice{
			ProviderID:   rec.ProviderID,
			ProviderName: rec.ProviderName,
			Price:        rec.Price,
			LastUpdated:  now,
		}
		replaced := false
		for i := range product.Prices {
			if product.Prices[i].ProviderID == rec.ProviderID {
				product.Prices[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			product.Prices = append(product.Prices, entry)
		}
	}

	products := make([]CanonicalProduct, 0, len(order))
	for _, id := range order {
		product := byID[id]
		product.CheapestPrice, product.CheapestProvider = cheapest(product.Prices)
		products = append(products, *product)
	}
	return products
}

// cheapest returns the minimum price across provider entries and the
// display name of the provider offering it
func cheapest(prices []ProviderPrice) (float64, string) {
	if len(prices) == 0 {
		return 0, ""
	}
	best := prices[0]
	for _, p := range prices[1:] {
		if p.Price < best.Price {
			best = p
		}
	}
	return best.Price, best.ProviderName
}

// ImagePathForBarcode splits a long identifier into the catalog's
// nested image directory layout (xxx/xxx/xxx/rest). Identifiers too
// short to carry that structure yield an empty path.
func ImagePathForBarcode(barcode string) string {
	if len(barcode) < minSeedBarcodeLength {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s", barcode[0:3], barcode[3:6], barcode[6:9], barcode[9:])
}

// ImageSeed derives a deterministic candidate image URL from the
// identifier shape, for later validation by the image resolution chain
func ImageSeed(barcode string) string {
	path := ImagePathForBarcode(barcode)
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/images/products/%s/front_he.400.jpg", DefaultImageBase, path)
}
