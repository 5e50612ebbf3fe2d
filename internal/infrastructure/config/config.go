package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "stixgate/internal/shared/config"
)

type Config struct {
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Feed     sharedConfig.FeedConfig     `mapstructure:"feed"`
	Worker   sharedConfig.WorkerConfig   `mapstructure:"worker"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// Environment variables use the STIXGATE_ prefix with dots replaced by
// underscores (e.g. STIXGATE_FEED_MAX_PAGES).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("STIXGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults() {
	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "stixgate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Feed pipeline defaults
	viper.SetDefault("feed.request_timeout", "60s")
	viper.SetDefault("feed.max_pages", 50)
	viper.SetDefault("feed.page_limit", 100)
	viper.SetDefault("feed.retry_initial_interval", "2s")
	viper.SetDefault("feed.retry_max_interval", "1m")
	viper.SetDefault("feed.retry_max_attempts", 5)
	viper.SetDefault("feed.batch_quiet_period", "30s")
	viper.SetDefault("feed.retry_lookback", "24h")
	viper.SetDefault("feed.log_retention_days", 90)

	// Worker defaults
	viper.SetDefault("worker.sweep_interval", "5m")
	viper.SetDefault("worker.retry_sweep_interval", "30m")
	viper.SetDefault("worker.concurrency", 4)
	viper.SetDefault("worker.metrics_addr", ":9190")
}
