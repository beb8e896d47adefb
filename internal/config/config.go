// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	App        AppConfig
	Cache      CacheConfig
	SalesAPI   SalesAPIConfig
	Purchasing PurchasingConfig
	Storage    StorageConfig
	Drive      DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// WatchOrders enables LISTEN/NOTIFY on purchase order changes.
	WatchOrders bool
}

type AppConfig struct {
	UploadDir string
	DataDir   string
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	SalesTTLSeconds int
	SessionTTLHours int
}

type SalesAPIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Timeout returns the HTTP timeout of the sales API client.
func (c SalesAPIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PurchasingConfig holds the defaults a new purchasing session starts from.
type PurchasingConfig struct {
	DeliveryTimeDays    float64
	CoverageDays        float64
	GrowthPercent       float64
	DefaultExchangeRate float64
	BulkEditChunkSize   int
	PriceListLimit      int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

type DriveConfig struct {
	CredentialsJSON     string
	PriceListFolderID   string
	Port                string
	SyncIntervalMinutes int
}

// SyncInterval returns how often the price list folder is polled. Zero
// disables polling.
func (c DriveConfig) SyncInterval() time.Duration {
	if c.SyncIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and data directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = read()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "purchasing")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_WATCH_ORDERS", true)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("APP_DATA_DIR", "./data/output")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_SALES_TTL_SECONDS", 300)
	viper.SetDefault("CACHE_SESSION_TTL_HOURS", 72)
	viper.SetDefault("SALES_API_BASE_URL", "http://localhost:3000/api")
	viper.SetDefault("SALES_API_TIMEOUT_SECONDS", 30)
	viper.SetDefault("PURCHASING_DELIVERY_TIME_DAYS", 3)
	viper.SetDefault("PURCHASING_COVERAGE_DAYS", 30)
	viper.SetDefault("PURCHASING_GROWTH_PERCENT", 0)
	viper.SetDefault("PURCHASING_DEFAULT_EXCHANGE_RATE", 11.5)
	viper.SetDefault("PURCHASING_BULK_EDIT_CHUNK_SIZE", 100)
	viper.SetDefault("PURCHASING_PRICE_LIST_LIMIT", 10)
	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "purchasing-exports")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("STORAGE_PREFIX", "exports")
	viper.SetDefault("DRIVE_PORT", "8081")
	viper.SetDefault("DRIVE_SYNC_INTERVAL_MINUTES", 15)
}

func read() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			DBName:      viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			WatchOrders: viper.GetBool("DB_WATCH_ORDERS"),
		},
		App: AppConfig{
			UploadDir: viper.GetString("APP_UPLOAD_DIR"),
			DataDir:   viper.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Enabled:         viper.GetBool("CACHE_ENABLED"),
			RedisURL:        viper.GetString("REDIS_URL"),
			RedisHost:       viper.GetString("REDIS_HOST"),
			RedisPort:       viper.GetString("REDIS_PORT"),
			RedisPassword:   viper.GetString("REDIS_PASSWORD"),
			RedisDB:         viper.GetInt("REDIS_DB"),
			SalesTTLSeconds: viper.GetInt("CACHE_SALES_TTL_SECONDS"),
			SessionTTLHours: viper.GetInt("CACHE_SESSION_TTL_HOURS"),
		},
		SalesAPI: SalesAPIConfig{
			BaseURL:        viper.GetString("SALES_API_BASE_URL"),
			TimeoutSeconds: viper.GetInt("SALES_API_TIMEOUT_SECONDS"),
		},
		Purchasing: PurchasingConfig{
			DeliveryTimeDays:    viper.GetFloat64("PURCHASING_DELIVERY_TIME_DAYS"),
			CoverageDays:        viper.GetFloat64("PURCHASING_COVERAGE_DAYS"),
			GrowthPercent:       viper.GetFloat64("PURCHASING_GROWTH_PERCENT"),
			DefaultExchangeRate: viper.GetFloat64("PURCHASING_DEFAULT_EXCHANGE_RATE"),
			BulkEditChunkSize:   viper.GetInt("PURCHASING_BULK_EDIT_CHUNK_SIZE"),
			PriceListLimit:      viper.GetInt("PURCHASING_PRICE_LIST_LIMIT"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON:     viper.GetString("GOOGLE_CREDENTIALS_JSON"),
			PriceListFolderID:   viper.GetString("DRIVE_PRICE_LIST_FOLDER_ID"),
			Port:                viper.GetString("DRIVE_PORT"),
			SyncIntervalMinutes: viper.GetInt("DRIVE_SYNC_INTERVAL_MINUTES"),
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
