package worker

import (
	"context"

	"github.com/robfig/cron/v3"

	"budgetmanager/priceworker/config"
	"budgetmanager/priceworker/internal/images"
	"budgetmanager/priceworker/internal/provider"
	"budgetmanager/priceworker/logger"
)

// Worker schedules the three batch jobs: price aggregation, image
// backfill and cache revalidation. Each job is also exposed as a
// direct entry point for external schedulers.
type Worker struct {
	ctx        context.Context
	aggregator *provider.Aggregator
	resolver   *images.Resolver
	cfg        *config.Config
	cron       *cron.Cron
	log        *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	aggregator *provider.Aggregator,
	resolver *images.Resolver,
	cfg *config.Config,
) *Worker {
	return &Worker{
		ctx:        ctx,
		aggregator: aggregator,
		resolver:   resolver,
		cfg:        cfg,
		cron:       cron.New(),
		log:        logger.ForWorker(),
	}
}

// Start registers the schedules and blocks until the context is
// cancelled; in-flight jobs finish or time out naturally.
func (w *Worker) Start() error {
	if _, err := w.cron.AddFunc(w.cfg.AggregateSpec, func() { w.RunAggregation(nil) }); err != nil {
		return err
	}
	if _, err := w.cron.AddFunc(w.cfg.BackfillSpec, func() { w.RunBackfill() }); err != nil {
		return err
	}
	if _, err := w.cron.AddFunc(w.cfg.RevalidateSpec, func() { w.RunRevalidation() }); err != nil {
		return err
	}

	w.log.Info().
		Str("aggregate", w.cfg.AggregateSpec).
		Str("backfill", w.cfg.BackfillSpec).
		Str("revalidate", w.cfg.RevalidateSpec).
		Msg("Starting scheduled jobs")

	w.cron.Start()
	<-w.ctx.Done()

	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	return nil
}

// RunAggregation runs one price aggregation pass for the given
// provider subset (nil means the configured default set)
func (w *Worker) RunAggregation(providerIDs []string) *provider.RunStats {
	if providerIDs == nil {
		providerIDs = w.cfg.EnabledProviders
	}
	stats, err := w.aggregator.Run(w.ctx, providerIDs)
	if err != nil {
		w.log.Error().Err(err).Msg("Aggregation run failed")
		return nil
	}
	return stats
}

// RunBackfill resolves images for products that are missing one
func (w *Worker) RunBackfill() *images.BackfillStats {
	stats, err := w.resolver.Backfill(w.ctx, w.cfg.BackfillLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("Image backfill failed")
		return nil
	}
	return stats
}

// RunRevalidation sweeps stale image cache entries
func (w *Worker) RunRevalidation() *images.SweepStats {
	stats, err := w.resolver.Revalidate(w.ctx, w.cfg.RevalidateLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("Cache revalidation failed")
		return nil
	}
	return stats
}
