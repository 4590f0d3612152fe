package images

import (
	"context"
	"time"
)

// SweepStats summarizes one revalidation sweep
type SweepStats struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Removed   int `json:"removed"`
}

// Revalidate sweeps up to limit stale-or-unvalidated cache entries.
// Category-fallback entries are valid by definition and only get their
// timestamp refreshed. Every other entry is re-probed: success
// refreshes the timestamp, failure deletes the entry and clears the
// owning product's stored image so the chain fully re-runs on next use.
func (r *Resolver) Revalidate(ctx context.Context, limit int) (*SweepStats, error) {
	cutoff := time.Now().Add(-r.ttl)
	entries, err := r.cache.ListStale(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	stats := &SweepStats{}
	now := time.Now()
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		stats.Checked++

		if entry.Source == SourceCategoryFallback {
			if err := r.cache.Touch(ctx, entry.ProductID, now); err != nil {
				r.log.Warn().Err(err).Str("product", entry.ProductID).Msg("Failed to refresh fallback entry")
				continue
			}
			stats.Refreshed++
			continue
		}

		if r.transport.Validate(entry.ImageURL) {
			if err := r.cache.Touch(ctx, entry.ProductID, now); err != nil {
				r.log.Warn().Err(err).Str("product", entry.ProductID).Msg("Failed to refresh cache entry")
				continue
			}
			stats.Refreshed++
			continue
		}

		if err := r.cache.Delete(ctx, entry.ProductID); err != nil {
			r.log.Warn().Err(err).Str("product", entry.ProductID).Msg("Failed to delete dead cache entry")
			continue
		}
		if err := r.products.ClearImage(ctx, entry.ProductID); err != nil {
			r.log.Warn().Err(err).Str("product", entry.ProductID).Msg("Failed to clear product image")
		}
		stats.Removed++
	}

	r.log.Info().
		Int("checked", stats.Checked).
		Int("refreshed", stats.Refreshed).
		Int("removed", stats.Removed).
		Msg("Image cache revalidation finished")

	return stats, nil
}
