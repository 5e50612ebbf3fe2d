package config

import (
	"fmt"
	"time"
)

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// FeedConfig holds tunables for the feed consumption pipeline.
type FeedConfig struct {
	// RequestTimeout is the default per-feed poll deadline. A feed may
	// override it with its own timeout setting.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxPages caps the pagination loop of a single poll.
	MaxPages int `mapstructure:"max_pages"`
	// PageLimit is the limit query parameter sent to TAXII servers.
	PageLimit int `mapstructure:"page_limit"`
	// RetryInitialInterval is the base delay for exponential backoff.
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	// RetryMaxInterval caps the backoff delay.
	RetryMaxInterval time.Duration `mapstructure:"retry_max_interval"`
	// RetryMaxAttempts bounds the retry budget per TAXII request.
	RetryMaxAttempts int `mapstructure:"retry_max_attempts"`
	// BatchQuietPeriod is the debounce window for summary notifications.
	BatchQuietPeriod time.Duration `mapstructure:"batch_quiet_period"`
	// RetryLookback bounds how far back the failed-feed sweep searches.
	RetryLookback time.Duration `mapstructure:"retry_lookback"`
	// LogRetentionDays controls consumption log cleanup.
	LogRetentionDays int `mapstructure:"log_retention_days"`
}

// WorkerConfig holds the poll worker settings.
type WorkerConfig struct {
	// SweepInterval is how often the scheduler checks for due feeds.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// RetrySweepInterval is how often failed feeds are re-queued.
	RetrySweepInterval time.Duration `mapstructure:"retry_sweep_interval"`
	// Concurrency bounds how many feed polls run in parallel.
	Concurrency int `mapstructure:"concurrency"`
	// MetricsAddr is the listen address for the Prometheus endpoint.
	MetricsAddr string `mapstructure:"metrics_addr"`
}
