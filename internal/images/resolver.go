package images

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"budgetmanager/priceworker/internal/catalog"
	"budgetmanager/priceworker/logger"
	"budgetmanager/priceworker/services/store"
)

// Image source tags recorded on cache entries
const (
	SourceCatalogAPI       = "catalog-api"
	SourceConstructedURL   = "constructed-url"
	SourceNameSearch       = "name-search"
	SourceKeywordTable     = "keyword-table"
	SourceCategoryFallback = "category-fallback"
)

// DefaultTTL is how long a validated cache entry is trusted without
// revalidation
const DefaultTTL = 30 * 24 * time.Hour

// constructedSuffixes are the locale/size variants probed by the
// constructed-URL stage, most specific locale first
var constructedSuffixes = []string{
	"front_he.400.jpg",
	"front_en.400.jpg",
	"front.400.jpg",
	"1.400.jpg",
}

// Resolution is the accepted outcome of one resolve call
type Resolution struct {
	ImageURL  string
	Source    string
	FromCache bool
}

// Resolver walks the image waterfall for a product: cache, catalog
// lookup, constructed URLs, name search, keyword table, category
// fallback. No stage throws; unreachable sources advance the chain,
// and the final stage is total.
type Resolver struct {
	transport   Transport
	cache       store.ImageCacheStore
	products    store.ProductStore
	catalogBase string
	imageBase   string
	ttl         time.Duration
	log         *logger.Logger
}

// BackfillStats summarizes one image backfill batch
type BackfillStats struct {
	Scanned   int `json:"scanned"`
	Resolved  int `json:"resolved"`
	Fallbacks int `json:"fallbacks"`
	Errors    int `json:"errors"`
}

// NewResolver creates a resolver. All handles are passed explicitly so
// the chain stays deterministic under test fakes.
func NewResolver(
	transport Transport,
	cache store.ImageCacheStore,
	products store.ProductStore,
	catalogBase, imageBase string,
	ttl time.Duration,
) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		transport:   transport,
		cache:       cache,
		products:    products,
		catalogBase: catalogBase,
		imageBase:   imageBase,
		ttl:         ttl,
		log:         logger.ForResolver(),
	}
}

// Resolve returns an image for the product. Stages 2-5 write a cache
// entry tagged with the stage that produced the URL; the category
// fallback is cached too but flagged non-authoritative, so it is
// re-resolved as soon as better inputs exist.
func (r *Resolver) Resolve(ctx context.Context, productID, name, category string) Resolution {
	if entry := r.freshCacheEntry(ctx, productID); entry != nil {
		return Resolution{ImageURL: entry.ImageURL, Source: entry.Source, FromCache: true}
	}

	if imageURL := r.catalogLookup(productID); imageURL != "" {
		return r.accept(ctx, productID, imageURL, SourceCatalogAPI)
	}

	if imageURL := r.constructedProbe(productID); imageURL != "" {
		return r.accept(ctx, productID, imageURL, SourceConstructedURL)
	}

	if imageURL := r.nameSearch(name); imageURL != "" {
		return r.accept(ctx, productID, imageURL, SourceNameSearch)
	}

	if imageURL := keywordImageFor(strings.ToLower(name)); imageURL != "" {
		return r.accept(ctx, productID, imageURL, SourceKeywordTable)
	}

	// stage 6 is total: category image, or the global default
	return r.accept(ctx, productID, categoryImageFor(category), SourceCategoryFallback)
}

// freshCacheEntry returns a usable cached entry: younger than the TTL
// and not a category fallback, which is never authoritative for reuse
func (r *Resolver) freshCacheEntry(ctx context.Context, productID string) *store.ImageCacheEntry {
	entry, err := r.cache.Get(ctx, productID)
	if err != nil || entry == nil {
		return nil
	}
	if entry.Source == SourceCategoryFallback {
		return nil
	}
	if time.Since(entry.ValidatedAt) >= r.ttl {
		return nil
	}
	return entry
}

// catalogLookup asks the catalog API for the product by identifier.
// The API's answer is never trusted on its own word: the image URL
// must pass an independent HEAD validation.
func (r *Resolver) catalogLookup(productID string) string {
	body, err := r.transport.Get(fmt.Sprintf("%s/api/v0/product/%s.json", r.catalogBase, productID))
	if err != nil {
		return ""
	}

	parsed := gjson.ParseBytes(body)
	if parsed.Get("status").Int() != 1 {
		return ""
	}

	imageURL := firstImageField(parsed.Get("product"))
	if imageURL == "" || !r.transport.Validate(imageURL) {
		return ""
	}
	return imageURL
}

// constructedProbe HEAD-validates the deterministic candidate URLs
// derived from the identifier shape, first valid one wins
func (r *Resolver) constructedProbe(productID string) string {
	path := catalog.ImagePathForBarcode(productID)
	if path == "" {
		return ""
	}
	for _, suffix := range constructedSuffixes {
		candidate := fmt.Sprintf("%s/images/products/%s/%s", r.imageBase, path, suffix)
		if r.transport.Validate(candidate) {
			return candidate
		}
	}
	return ""
}

// nameSearch free-text searches the catalog by product name and
// validates the first candidate that carries any image field
func (r *Resolver) nameSearch(name string) string {
	if name == "" {
		return ""
	}

	searchURL := fmt.Sprintf(
		"%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=5",
		r.catalogBase, url.QueryEscape(name),
	)
	body, err := r.transport.Get(searchURL)
	if err != nil {
		return ""
	}

	var imageURL string
	gjson.GetBytes(body, "products").ForEach(func(_, candidate gjson.Result) bool {
		if img := firstImageField(candidate); img != "" {
			imageURL = img
			return false
		}
		return true
	})

	if imageURL == "" || !r.transport.Validate(imageURL) {
		return ""
	}
	return imageURL
}

// accept records the result in the cache, tagged with the producing
// stage, and returns it. Cache write failures are logged, never raised.
func (r *Resolver) accept(ctx context.Context, productID, imageURL, source string) Resolution {
	err := r.cache.Upsert(ctx, store.ImageCacheEntry{
		ProductID:   productID,
		ImageURL:    imageURL,
		Source:      source,
		ValidatedAt: time.Now(),
	})
	if err != nil {
		r.log.Warn().Err(err).Str("product", productID).Msg("Failed to write image cache entry")
	}
	return Resolution{ImageURL: imageURL, Source: source}
}

// firstImageField returns the first populated image field of a catalog
// product object
func firstImageField(product gjson.Result) string {
	for _, field := range []string{"image_front_url", "image_url", "image_small_url"} {
		if value := product.Get(field).String(); value != "" {
			return value
		}
	}
	return ""
}

// Backfill resolves images for up to limit products that have none,
// storing each result on the owning product. Store write failures are
// counted, not raised.
func (r *Resolver) Backfill(ctx context.Context, limit int) (*BackfillStats, error) {
	products, err := r.products.ListMissingImages(ctx, limit)
	if err != nil {
		return nil, err
	}

	stats := &BackfillStats{}
	for _, product := range products {
		if ctx.Err() != nil {
			break
		}
		stats.Scanned++

		resolution := r.Resolve(ctx, product.ID, product.Name, product.Category)
		if resolution.Source == SourceCategoryFallback {
			stats.Fallbacks++
		} else {
			stats.Resolved++
		}

		if err := r.products.SetImage(ctx, product.ID, resolution.ImageURL); err != nil {
			stats.Errors++
			r.log.Warn().Err(err).Str("product", product.ID).Msg("Failed to store resolved image")
		}
	}

	r.log.Info().
		Int("scanned", stats.Scanned).
		Int("resolved", stats.Resolved).
		Int("fallbacks", stats.Fallbacks).
		Int("errors", stats.Errors).
		Msg("Image backfill finished")

	return stats, nil
}
