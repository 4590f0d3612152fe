package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	// MongoDB configuration
	MongoURI string
	MongoDB  string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Job schedules (cron specs)
	AggregateSpec  string
	BackfillSpec   string
	RevalidateSpec string

	// Aggregation configuration
	EnabledProviders []string
	ProviderDelay    time.Duration
	FetchTimeout     time.Duration
	MaxFilesPerRun   int

	// Image resolution configuration
	ImageTTL        time.Duration
	BackfillLimit   int
	RevalidateLimit int
	CatalogBaseURL  string
	ImageBaseURL    string

	// Provider portals
	PublishedPricesURL string
	ShufersalURL       string
	YbitanURL          string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "100"))
	delaySeconds, _ := strconv.Atoi(getEnv("PROVIDER_DELAY_SECONDS", "5"))
	timeoutSeconds, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "20"))
	maxFiles, _ := strconv.Atoi(getEnv("MAX_FILES_PER_PROVIDER", "3"))
	ttlDays, _ := strconv.Atoi(getEnv("IMAGE_TTL_DAYS", "30"))
	backfillLimit, _ := strconv.Atoi(getEnv("BACKFILL_LIMIT", "500"))
	revalidateLimit, _ := strconv.Atoi(getEnv("REVALIDATE_LIMIT", "200"))

	var enabled []string
	if csv := getEnv("ENABLED_PROVIDERS", ""); csv != "" {
		for _, id := range strings.Split(csv, ",") {
			if id = strings.TrimSpace(id); id != "" {
				enabled = append(enabled, id)
			}
		}
	}

	return &Config{
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:              getEnv("MONGODB_DATABASE", "budget-manager"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "price-runs"),
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		AggregateSpec:        getEnv("AGGREGATE_SPEC", "0 3 * * *"),
		BackfillSpec:         getEnv("BACKFILL_SPEC", "30 4 * * *"),
		RevalidateSpec:       getEnv("REVALIDATE_SPEC", "0 5 * * 0"),
		EnabledProviders:     enabled,
		ProviderDelay:        time.Duration(delaySeconds) * time.Second,
		FetchTimeout:         time.Duration(timeoutSeconds) * time.Second,
		MaxFilesPerRun:       maxFiles,
		ImageTTL:             time.Duration(ttlDays) * 24 * time.Hour,
		BackfillLimit:        backfillLimit,
		RevalidateLimit:      revalidateLimit,
		CatalogBaseURL:       getEnv("CATALOG_BASE_URL", "https://world.openfoodfacts.org"),
		ImageBaseURL:         getEnv("IMAGE_BASE_URL", "https://images.openfoodfacts.org"),
		PublishedPricesURL:   getEnv("PUBLISHED_PRICES_URL", "https://url.publishedprices.co.il"),
		ShufersalURL:         getEnv("SHUFERSAL_URL", "https://prices.shufersal.co.il"),
		YbitanURL:            getEnv("YBITAN_URL", "http://publishprice.ybitan.co.il"),
		Environment:          getEnv("PRICEWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration before any network activity begins
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI must not be empty")
	}
	if c.ProviderDelay < 0 {
		return fmt.Errorf("provider delay must not be negative")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.MaxFilesPerRun <= 0 {
		return fmt.Errorf("max files per provider must be positive")
	}
	if c.ImageTTL <= 0 {
		return fmt.Errorf("image TTL must be positive")
	}
	if c.BackfillLimit <= 0 || c.RevalidateLimit <= 0 {
		return fmt.Errorf("batch limits must be positive")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, spec := range []string{c.AggregateSpec, c.BackfillSpec, c.RevalidateSpec} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
