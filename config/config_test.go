package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "budget-manager", cfg.MongoDB)
	assert.Equal(t, "price-runs", cfg.RedisStream)
	assert.Equal(t, "0 3 * * *", cfg.AggregateSpec)
	assert.Equal(t, 5*time.Second, cfg.ProviderDelay)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.MaxFilesPerRun)
	assert.Equal(t, 30*24*time.Hour, cfg.ImageTTL)
	assert.Empty(t, cfg.EnabledProviders)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("MONGODB_DATABASE", "pricedb")
	t.Setenv("PROVIDER_DELAY_SECONDS", "2")
	t.Setenv("IMAGE_TTL_DAYS", "7")
	t.Setenv("ENABLED_PROVIDERS", "shufersal, rami_levy ,victory")

	cfg := LoadConfig()

	assert.Equal(t, "pricedb", cfg.MongoDB)
	assert.Equal(t, 2*time.Second, cfg.ProviderDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.ImageTTL)
	assert.Equal(t, []string{"shufersal", "rami_levy", "victory"}, cfg.EnabledProviders)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config { return LoadConfig() }

	cfg := base()
	cfg.MongoURI = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ProviderDelay = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.FetchTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxFilesPerRun = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AggregateSpec = "not a cron spec"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron spec")
}
