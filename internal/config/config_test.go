package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestRead_Defaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg := read()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3.0, cfg.Purchasing.DeliveryTimeDays)
	assert.Equal(t, 30.0, cfg.Purchasing.CoverageDays)
	assert.Equal(t, 11.5, cfg.Purchasing.DefaultExchangeRate)
	assert.Equal(t, 100, cfg.Purchasing.BulkEditChunkSize)
	assert.Equal(t, 10, cfg.Purchasing.PriceListLimit)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Storage.Enabled)
	assert.True(t, cfg.Database.WatchOrders)
}

func TestRead_Environment(t *testing.T) {
	viper.Reset()
	setDefaults()
	t.Setenv("PURCHASING_COVERAGE_DAYS", "45")
	t.Setenv("SALES_API_BASE_URL", "https://sales.example.com/api")
	t.Setenv("CACHE_ENABLED", "true")
	viper.AutomaticEnv()

	cfg := read()
	assert.Equal(t, 45.0, cfg.Purchasing.CoverageDays)
	assert.Equal(t, "https://sales.example.com/api", cfg.SalesAPI.BaseURL)
	assert.True(t, cfg.Cache.Enabled)
}

func TestSalesAPIConfig_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, SalesAPIConfig{}.Timeout())
	assert.Equal(t, 5*time.Second, SalesAPIConfig{TimeoutSeconds: 5}.Timeout())
}

func TestDriveConfig_SyncInterval(t *testing.T) {
	assert.Zero(t, DriveConfig{}.SyncInterval())
	assert.Equal(t, 15*time.Minute, DriveConfig{SyncIntervalMinutes: 15}.SyncInterval())
}
