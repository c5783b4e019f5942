package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is resolved with this precedence, highest first: process environment,
// .env file, CONFIG_FILE (yaml/json/toml), built-in defaults.
type Config struct {
	Port             string
	Environment      string
	DBDriver         string
	DatabaseURL      string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	CountriesAPIURL  string
	ExchangeRatesURL string
	ExternalTimeout  time.Duration
	CacheDir         string
	RefreshBatchSize int
	RefreshWorkers   int
	RefreshSchedule  string
	RateLimitRPS     float64
	RateLimitBurst   int
	LogLevel         string
	LogFormat        string
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:             v.GetString("port"),
		Environment:      strings.ToLower(v.GetString("app_env")),
		DBDriver:         strings.ToLower(v.GetString("db_driver")),
		DatabaseURL:      v.GetString("database_url"),
		DBMaxOpenConns:   positiveInt(v, "db_max_open_conns"),
		DBMaxIdleConns:   positiveInt(v, "db_max_idle_conns"),
		CountriesAPIURL:  v.GetString("countries_api_url"),
		ExchangeRatesURL: v.GetString("exchange_rates_api_url"),
		ExternalTimeout:  time.Duration(positiveInt(v, "external_timeout_ms")) * time.Millisecond,
		CacheDir:         v.GetString("cache_dir"),
		RefreshBatchSize: positiveInt(v, "refresh_batch_size"),
		RefreshWorkers:   positiveInt(v, "refresh_concurrency"),
		RefreshSchedule:  strings.TrimSpace(v.GetString("refresh_schedule")),
		RateLimitRPS:     v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:   positiveInt(v, "rate_limit_burst"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        strings.ToLower(v.GetString("log_format")),
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaults["rate_limit_rps"].(float64)
	}

	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.DBDriver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}

	if err := store.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

var defaults = map[string]any{
	"port":                   "3000",
	"app_env":                "development",
	"db_driver":              DriverSQLite,
	"database_url":           "countries.db",
	"db_max_open_conns":      10,
	"db_max_idle_conns":      5,
	"countries_api_url":      "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies",
	"exchange_rates_api_url": "https://open.er-api.com/v6/latest/USD",
	"external_timeout_ms":    10000,
	"cache_dir":              "./cache",
	"refresh_batch_size":     25,
	"refresh_concurrency":    5,
	"refresh_schedule":       "",
	"rate_limit_rps":         5.0,
	"rate_limit_burst":       10,
	"log_level":              "info",
	"log_format":             "text",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// positiveInt falls back to the default when the configured value is missing,
// non-numeric or not positive.
func positiveInt(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}
