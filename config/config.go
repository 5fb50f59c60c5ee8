package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Auth       AuthConfig       `yaml:"auth"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Recap      RecapConfig      `yaml:"recap"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// AuthConfig holds the signing secret and lifetime for API tokens.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// SweeperConfig controls the stale-presence sweep job.
type SweeperConfig struct {
	Enabled           bool          `yaml:"enabled"`
	IntervalMinutes   int           `yaml:"interval_minutes"`
	StaleAfterHours   int           `yaml:"stale_after_hours"`
	FutureWindowHours int           `yaml:"future_window_hours"`
	Interval          time.Duration `yaml:"-"`
	StaleAfter        time.Duration `yaml:"-"`
	FutureWindow      time.Duration `yaml:"-"`
}

// RecapConfig controls the daily recap scheduler.
type RecapConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalMinutes int           `yaml:"interval_minutes"`
	WindowStartHour int           `yaml:"window_start_hour"`
	WindowMinutes   int           `yaml:"window_minutes"`
	Interval        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Sweeper.IntervalMinutes <= 0 {
		cfg.Sweeper.IntervalMinutes = 10
	}
	if cfg.Sweeper.StaleAfterHours <= 0 {
		cfg.Sweeper.StaleAfterHours = 3
	}
	if cfg.Sweeper.FutureWindowHours <= 0 {
		cfg.Sweeper.FutureWindowHours = 12
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalMinutes) * time.Minute
	cfg.Sweeper.StaleAfter = time.Duration(cfg.Sweeper.StaleAfterHours) * time.Hour
	cfg.Sweeper.FutureWindow = time.Duration(cfg.Sweeper.FutureWindowHours) * time.Hour

	if cfg.Recap.IntervalMinutes <= 0 {
		cfg.Recap.IntervalMinutes = 5
	}
	if cfg.Recap.WindowStartHour <= 0 {
		cfg.Recap.WindowStartHour = 21
	}
	if cfg.Recap.WindowMinutes <= 0 {
		cfg.Recap.WindowMinutes = 10
	}
	cfg.Recap.Interval = time.Duration(cfg.Recap.IntervalMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
