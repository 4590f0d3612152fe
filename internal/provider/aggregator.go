package provider

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"budgetmanager/priceworker/internal/catalog"
	"budgetmanager/priceworker/logger"
	"budgetmanager/priceworker/pkg/errors"
	"budgetmanager/priceworker/services/cache"
	"budgetmanager/priceworker/services/publisher"
	"budgetmanager/priceworker/services/store"

	"budgetmanager/priceworker/helpers"
)

// blockTime is how long a provider that rate-limited us stays blocked
const blockTime = 30 * time.Minute

// Result is the per-provider outcome of one aggregation run
type Result struct {
	ProviderID   string `json:"providerId"`
	ProviderName string `json:"providerName"`
	Success      bool   `json:"success"`
	Records      int    `json:"records"`
	Error        string `json:"error,omitempty"`
}

// RunStats is the aggregate summary of one aggregation run
type RunStats struct {
	ProvidersAttempted int         `json:"providersAttempted"`
	ProvidersSucceeded int         `json:"providersSucceeded"`
	TotalRecords       int         `json:"totalRecords"`
	TotalProducts      int         `json:"totalProducts"`
	Providers          []Result    `json:"providers"`
	Store              store.Stats `json:"store"`
	StartedAt          time.Time   `json:"startedAt"`
	FinishedAt         time.Time   `json:"finishedAt"`
}

// Aggregator drives price aggregation across the provider set.
// Providers are processed strictly sequentially with a courtesy delay
// in between; session cookies never cross provider boundaries and each
// provider's failure is isolated to its own result entry.
type Aggregator struct {
	providers []Config
	products  store.ProductStore
	cacheSvc  cache.CacheService
	pub       publisher.Publisher
	delay     time.Duration
	timeout   time.Duration
	maxFiles  int
	log       *logger.Logger
}

// NewAggregator creates an aggregator over the given provider set.
// Store and cache handles are passed in explicitly so runs stay
// testable with fakes.
func NewAggregator(
	providers []Config,
	products store.ProductStore,
	cacheSvc cache.CacheService,
	pub publisher.Publisher,
	delay, timeout time.Duration,
	maxFiles int,
) *Aggregator {
	return &Aggregator{
		providers: providers,
		products:  products,
		cacheSvc:  cacheSvc,
		pub:       pub,
		delay:     delay,
		timeout:   timeout,
		maxFiles:  maxFiles,
		log:       logger.ForWorker(),
	}
}

// Run aggregates prices for the requested provider subset (empty means
// all enabled providers) and upserts the merged canonical products.
// Partial and zero data never raise; the stats object describes what
// happened. Only an unknown provider id fails fast.
func (a *Aggregator) Run(ctx context.Context, providerIDs []string) (*RunStats, error) {
	selected, err := Select(a.providers, providerIDs)
	if err != nil {
		return nil, err
	}

	stats := &RunStats{StartedAt: time.Now()}
	var allRecords []catalog.RawPriceRecord

	for i, p := range selected {
		if ctx.Err() != nil {
			// cooperative abort: stop issuing new provider fetches
			break
		}

		stats.ProvidersAttempted++
		result, records := a.runProvider(ctx, p)
		stats.Providers = append(stats.Providers, result)
		if result.Success {
			stats.ProvidersSucceeded++
			stats.TotalRecords += result.Records
			allRecords = append(allRecords, records...)
		}

		// courtesy delay between providers, never after the last one
		if i < len(selected)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(a.delay):
			}
		}
	}

	merged := catalog.Merge(allRecords, time.Now())
	stats.TotalProducts = len(merged)
	for _, product := range merged {
		outcome, err := a.products.Upsert(ctx, product)
		if err != nil {
			stats.Store.Errors++
			continue
		}
		if outcome == store.OutcomeInserted {
			stats.Store.Inserted++
		} else {
			stats.Store.Updated++
		}
	}

	stats.FinishedAt = time.Now()

	if err := a.products.SetSyncStatus(ctx, store.SyncStatus{
		LastSync:      stats.FinishedAt,
		Type:          catalog.DataSourcePriceAggregation,
		TotalProducts: stats.TotalProducts,
		StoreStats:    stats.Store,
	}); err != nil {
		a.log.Warn().Err(err).Msg("Failed to record sync status")
	}

	a.publishSummary(stats)

	a.log.Info().
		Int("providers_attempted", stats.ProvidersAttempted).
		Int("providers_succeeded", stats.ProvidersSucceeded).
		Int("total_records", stats.TotalRecords).
		Int("total_products", stats.TotalProducts).
		Int("inserted", stats.Store.Inserted).
		Int("updated", stats.Store.Updated).
		Int("store_errors", stats.Store.Errors).
		Msg("Aggregation run finished")

	return stats, nil
}

// runProvider sequences auth, discovery, download and parse for a
// single provider. Every failure is caught here and folded into the
// provider's result; nothing escapes to abort the run.
func (a *Aggregator) runProvider(ctx context.Context, p Config) (Result, []catalog.RawPriceRecord) {
	log := logger.ForProvider(p.ID)
	result := Result{ProviderID: p.ID, ProviderName: p.Name}

	if p.Strategy == StrategyUnimplemented || !p.Enabled {
		result.Error = "provider has no implemented listing strategy"
		log.Info().Msg("Skipping provider without listing strategy")
		return result, nil
	}

	if a.blocked(p) {
		result.Error = "provider is rate-limit blocked"
		log.Warn().Msg("Skipping blocked provider")
		return result, nil
	}

	var sess *Session
	if p.Auth == AuthCookieSession {
		var err error
		sess, err = Login(ctx, p, a.timeout)
		if err != nil {
			result.Error = err.Error()
			log.Warn().Err(err).Msg("Login failed")
			return result, nil
		}
		if sess == nil {
			result.Error = "provider issued no session cookie"
			log.Warn().Msg("No session cookie issued, skipping provider")
			return result, nil
		}
	}

	candidates, err := Discover(p, sess, a.timeout)
	if err != nil {
		result.Error = err.Error()
		log.Warn().Err(err).Msg("Listing discovery failed")
		return result, nil
	}
	if len(candidates) == 0 {
		result.Error = "no candidate price files found"
		log.Warn().Msg("No candidate price files found")
		return result, nil
	}
	if len(candidates) > a.maxFiles {
		candidates = candidates[:a.maxFiles]
	}

	var records []catalog.RawPriceRecord
	var lastErr error
	for _, fileURL := range candidates {
		if ctx.Err() != nil {
			break
		}

		opts := helpers.FetchOptions{Timeout: a.timeout}
		if sess != nil {
			opts.Cookie = sess.Cookie
		}
		body, err := helpers.Fetch(fileURL, opts)
		if err != nil {
			// a failed URL is skipped; the provider fails only if every
			// candidate yields nothing
			lastErr = err
			a.maybeBlock(p, err)
			log.Debug().Err(err).Str("url", fileURL).Msg("Candidate file fetch failed")
			continue
		}

		parsed, err := ParsePriceFile(p, body)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Str("url", fileURL).Msg("Candidate file parse failed")
			continue
		}
		records = append(records, parsed...)
	}

	if len(records) == 0 {
		if lastErr != nil {
			result.Error = lastErr.Error()
		} else {
			result.Error = "no usable records in candidate files"
		}
		return result, nil
	}

	result.Success = true
	result.Records = len(records)
	log.Info().Int("records", len(records)).Msg("Provider aggregation succeeded")
	return result, records
}

// blocked checks the provider's rate-limit marker
func (a *Aggregator) blocked(p Config) bool {
	if a.cacheSvc == nil {
		return false
	}
	_, err := a.cacheSvc.Get(p.ID + "_blocked")
	return err == nil
}

// maybeBlock sets a block marker when the provider rate-limited us
func (a *Aggregator) maybeBlock(p Config, err error) {
	if a.cacheSvc == nil {
		return
	}
	var pe *errors.PriceError
	if !stderrors.As(err, &pe) || pe.StatusCode != 429 {
		return
	}
	marker := fmt.Sprintf("%d", int(blockTime.Seconds()))
	if cacheErr := a.cacheSvc.Set(p.ID+"_blocked", []byte(marker), blockTime); cacheErr != nil {
		a.log.Warn().Err(cacheErr).Str("provider", p.ID).Msg("Failed to set block marker")
	}
}

// publishSummary pushes the run summary onto the result stream
func (a *Aggregator) publishSummary(stats *RunStats) {
	if a.pub == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to marshal run summary")
		return
	}
	if err := a.pub.Publish("summary", payload); err != nil {
		a.log.Error().Err(err).Msg("Failed to publish run summary")
		return
	}
	if err := a.pub.TrimStream(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to trim run stream")
	}
}
