package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetmanager/priceworker/config"
	"budgetmanager/priceworker/internal/images"
	"budgetmanager/priceworker/internal/provider"
	"budgetmanager/priceworker/logger"
	"budgetmanager/priceworker/services/cache"
	"budgetmanager/priceworker/services/publisher"
	"budgetmanager/priceworker/services/store"
	"budgetmanager/priceworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("aggregate_spec", cfg.AggregateSpec).
		Dur("provider_delay", cfg.ProviderDelay).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	mongoStore, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoStore.Close(context.Background())

	logger.Info("Connected to MongoDB at %s (database: %s)", cfg.MongoURI, cfg.MongoDB)

	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamMaxLength,
	)
	defer redisPublisher.Close()

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Assemble the pipeline
	providers := provider.Registry(cfg)
	aggregator := provider.NewAggregator(
		providers,
		mongoStore,
		cacheService,
		redisPublisher,
		cfg.ProviderDelay,
		cfg.FetchTimeout,
		cfg.MaxFilesPerRun,
	)

	resolver := images.NewResolver(
		&images.HTTPTransport{Timeout: cfg.FetchTimeout},
		mongoStore.ImageCache(),
		mongoStore,
		cfg.CatalogBaseURL,
		cfg.ImageBaseURL,
		cfg.ImageTTL,
	)

	w := worker.NewWorker(ctx, aggregator, resolver, cfg)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting price worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}
