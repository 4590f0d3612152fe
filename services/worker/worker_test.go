package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"budgetmanager/priceworker/config"
	"budgetmanager/priceworker/internal/catalog"
	"budgetmanager/priceworker/internal/images"
	"budgetmanager/priceworker/internal/provider"
	"budgetmanager/priceworker/services/store"
)

type stubStore struct{}

func (stubStore) Upsert(context.Context, catalog.CanonicalProduct) (store.UpsertOutcome, error) {
	return store.OutcomeUpdated, nil
}
func (stubStore) ListMissingImages(context.Context, int) ([]catalog.CanonicalProduct, error) {
	return nil, nil
}
func (stubStore) SetImage(context.Context, string, string) error { return nil }
func (stubStore) ClearImage(context.Context, string) error       { return nil }
func (stubStore) SetSyncStatus(context.Context, store.SyncStatus) error {
	return nil
}

type stubImageCache struct{}

func (stubImageCache) Get(context.Context, string) (*store.ImageCacheEntry, error) { return nil, nil }
func (stubImageCache) Upsert(context.Context, store.ImageCacheEntry) error         { return nil }
func (stubImageCache) Delete(context.Context, string) error                        { return nil }
func (stubImageCache) ListStale(context.Context, time.Time, int) ([]store.ImageCacheEntry, error) {
	return nil, nil
}
func (stubImageCache) Touch(context.Context, string, time.Time) error { return nil }

type stubTransport struct{}

func (stubTransport) Get(string) ([]byte, error) { return nil, context.DeadlineExceeded }
func (stubTransport) Validate(string) bool       { return false }

func newTestWorker(ctx context.Context, cfg *config.Config) *Worker {
	aggregator := provider.NewAggregator(nil, stubStore{}, nil, nil, 0, time.Second, 3)
	resolver := images.NewResolver(stubTransport{}, stubImageCache{}, stubStore{}, "http://c", "http://i", time.Hour)
	return NewWorker(ctx, aggregator, resolver, cfg)
}

func TestWorkerRunsJobsDirectly(t *testing.T) {
	cfg := config.LoadConfig()
	w := newTestWorker(context.Background(), cfg)

	agg := w.RunAggregation(nil)
	assert.NotNil(t, agg)
	assert.Equal(t, 0, agg.ProvidersAttempted)

	backfill := w.RunBackfill()
	assert.NotNil(t, backfill)
	assert.Equal(t, 0, backfill.Scanned)

	sweep := w.RunRevalidation()
	assert.NotNil(t, sweep)
	assert.Equal(t, 0, sweep.Checked)
}

func TestWorkerStartStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newTestWorker(ctx, config.LoadConfig())

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorkerStartRejectsBadSchedule(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.AggregateSpec = "not a cron spec"
	w := newTestWorker(context.Background(), cfg)

	assert.Error(t, w.Start())
}
