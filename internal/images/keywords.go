package images

import "strings"

// keywordImage maps a product-name keyword to a stock image of that
// product family. Matching is ordered first-hit substring containment
// against the lowercased name, same discipline as the category
// classifier: specific compound terms stay ahead of their generic
// parents (קפה נמס before קפה, מי סודה before מים).
type keywordImage struct {
	Keyword  string
	ImageURL string
}

var keywordImages = []keywordImage{
	{"קפה נמס", "https://images.openfoodfacts.org/images/products/729/000/017/2078/front_he.400.jpg"},
	{"קפה", "https://images.openfoodfacts.org/images/products/729/000/017/1989/front_he.400.jpg"},
	{"מי סודה", "https://images.openfoodfacts.org/images/products/729/000/080/1397/front_he.400.jpg"},
	{"מים", "https://images.openfoodfacts.org/images/products/729/000/080/1427/front_he.400.jpg"},
	{"במבה", "https://images.openfoodfacts.org/images/products/729/000/006/6318/front_he.400.jpg"},
	{"ביסלי", "https://images.openfoodfacts.org/images/products/729/000/006/6619/front_he.400.jpg"},
	{"קוטג", "https://images.openfoodfacts.org/images/products/729/000/413/1074/front_he.400.jpg"},
	{"חלב", "https://images.openfoodfacts.org/images/products/729/000/412/7619/front_he.400.jpg"},
	{"לחם", "https://images.openfoodfacts.org/images/products/729/011/058/2591/front_he.400.jpg"},
	{"ביצים", "https://images.openfoodfacts.org/images/products/729/000/041/5296/front_he.400.jpg"},
	{"קולה", "https://images.openfoodfacts.org/images/products/544/900/000/0996/front_he.400.jpg"},
	{"שוקולד", "https://images.openfoodfacts.org/images/products/729/000/011/2284/front_he.400.jpg"},
	{"טונה", "https://images.openfoodfacts.org/images/products/729/000/066/3123/front_he.400.jpg"},
	{"אורז", "https://images.openfoodfacts.org/images/products/729/000/052/8759/front_he.400.jpg"},
	{"שמן זית", "https://images.openfoodfacts.org/images/products/729/000/011/7654/front_he.400.jpg"},
}

// categoryFallbackImages is the per-category static fallback, keyed by
// the classifier's category labels
var categoryFallbackImages = map[string]string{
	"מוצרי חלב":    "https://images.unsplash.com/photo-1550583724-b2692b85b150?w=400",
	"לחם ומאפים":   "https://images.unsplash.com/photo-1509440159596-0249088772ff?w=400",
	"ביצים":        "https://images.unsplash.com/photo-1506976785307-8732e854ad03?w=400",
	"בשר ועוף":     "https://images.unsplash.com/photo-1602470520998-f4a52199a3d6?w=400",
	"דגים":         "https://images.unsplash.com/photo-1519708227418-c8fd9a32b7a2?w=400",
	"פירות וירקות": "https://images.unsplash.com/photo-1610832958506-aa56368176cf?w=400",
	"קפה ותה":      "https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=400",
	"משקאות":       "https://images.unsplash.com/photo-1544145945-f90425340c7e?w=400",
	"חטיפים":       "https://images.unsplash.com/photo-1599490659213-e2b9527bd087?w=400",
	"ניקיון":       "https://images.unsplash.com/photo-1563453392212-326f5e854473?w=400",
	"פסטה ואורז":   "https://images.unsplash.com/photo-1551462147-ff29053bfc14?w=400",
	"שימורים":      "https://images.unsplash.com/photo-1584628804776-7344e1bf1968?w=400",
}

// defaultFallbackImage covers products with no recognizable category
const defaultFallbackImage = "https://images.unsplash.com/photo-1542838132-92c53300491e?w=400"

// keywordImageFor returns the first keyword image whose keyword is
// contained in the lowercased name, or empty when nothing matches
func keywordImageFor(lowerName string) string {
	for _, entry := range keywordImages {
		if lowerName != "" && strings.Contains(lowerName, entry.Keyword) {
			return entry.ImageURL
		}
	}
	return ""
}

// categoryImageFor is total: unknown categories get the global default
func categoryImageFor(category string) string {
	if url, ok := categoryFallbackImages[category]; ok {
		return url
	}
	return defaultFallbackImage
}
