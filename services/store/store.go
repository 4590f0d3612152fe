package store

import (
	"context"
	"time"

	"budgetmanager/priceworker/internal/catalog"
)

// UpsertOutcome reports what an upsert did
type UpsertOutcome int

const (
	// OutcomeInserted means the document did not exist before
	OutcomeInserted UpsertOutcome = iota
	// OutcomeUpdated means an existing document was replaced
	OutcomeUpdated
)

// Stats counts store writes during a run
type Stats struct {
	Inserted int `bson:"inserted" json:"inserted"`
	Updated  int `bson:"updated" json:"updated"`
	Errors   int `bson:"errors" json:"errors"`
}

// SyncStatus is the per-run bookkeeping document kept alongside products
type SyncStatus struct {
	LastSync      time.Time `bson:"lastSync" json:"lastSync"`
	Type          string    `bson:"type" json:"type"`
	TotalProducts int       `bson:"totalProducts" json:"totalProducts"`
	StoreStats    Stats     `bson:"storeStats" json:"storeStats"`
}

// ImageCacheEntry is a resolved product image with provenance.
// Source carries the waterfall stage that produced the URL; entries
// whose source is the category fallback are never treated as
// authoritative for reuse.
type ImageCacheEntry struct {
	ProductID   string    `bson:"barcode" json:"barcode"`
	ImageURL    string    `bson:"imageUrl" json:"imageUrl"`
	Source      string    `bson:"source" json:"source"`
	ValidatedAt time.Time `bson:"validatedAt" json:"validatedAt"`
}

// ProductStore persists canonical products keyed by product identifier
type ProductStore interface {
	// Upsert inserts or replaces a product by identifier
	Upsert(ctx context.Context, product catalog.CanonicalProduct) (UpsertOutcome, error)

	// ListMissingImages returns up to limit products without a stored image
	ListMissingImages(ctx context.Context, limit int) ([]catalog.CanonicalProduct, error)

	// SetImage stores a resolved image URL on a product
	SetImage(ctx context.Context, productID, imageURL string) error

	// ClearImage removes a product's stored image so resolution re-runs
	ClearImage(ctx context.Context, productID string) error

	// SetSyncStatus records the outcome of an aggregation run
	SetSyncStatus(ctx context.Context, status SyncStatus) error
}

// ImageCacheStore persists image cache entries keyed by product identifier
type ImageCacheStore interface {
	// Get returns the entry for a product, or nil on a miss
	Get(ctx context.Context, productID string) (*ImageCacheEntry, error)

	// Upsert inserts or replaces an entry
	Upsert(ctx context.Context, entry ImageCacheEntry) error

	// Delete removes an entry
	Delete(ctx context.Context, productID string) error

	// ListStale returns up to limit entries validated before the cutoff,
	// including entries that were never validated at all
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]ImageCacheEntry, error)

	// Touch refreshes an entry's validation timestamp
	Touch(ctx context.Context, productID string, at time.Time) error
}
