package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Push         PushConfig         `yaml:"push"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
	Reservations ReservationsConfig `yaml:"reservations"`
	RoomCache    RoomCacheConfig    `yaml:"room_cache"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port" env:"PORT"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN                    string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// EnableExclusion installs the Postgres overlap exclusion constraint.
	EnableExclusion bool `yaml:"enable_exclusion"`
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer          string        `yaml:"issuer"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes"`
	TokenTTL        time.Duration `yaml:"-"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
}

// PushConfig holds the VAPID keys for web push and the FCM credentials for mobile push.
type PushConfig struct {
	PublicKey      string `yaml:"vapid_public_key" env:"VAPID_PUBLIC_KEY"`
	PrivateKey     string `yaml:"vapid_private_key" env:"VAPID_PRIVATE_KEY"`
	Subject        string `yaml:"subject"`
	TTL            int    `yaml:"ttl"`
	FCMCredentials string `yaml:"fcm_credentials_file" env:"FCM_CREDENTIALS_FILE"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// ReservationsConfig holds booking policy knobs.
type ReservationsConfig struct {
	// PendingBlocks makes PENDING requests hold their slot like approved ones.
	PendingBlocks      bool          `yaml:"pending_blocks"`
	MaxDurationMinutes int           `yaml:"max_duration_minutes"`
	MaxDuration        time.Duration `yaml:"-"`
}

// RoomCacheConfig bounds the in-memory room cache.
type RoomCacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
	Capacity   int `yaml:"capacity"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development"`
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

	// Environment variables win over the file, mostly for secrets.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
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

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 7 * 24 * 60
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "roombookd"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.Reservations.MaxDurationMinutes <= 0 {
		cfg.Reservations.MaxDurationMinutes = 24 * 60
	}
	cfg.Reservations.MaxDuration = time.Duration(cfg.Reservations.MaxDurationMinutes) * time.Minute

	if cfg.RoomCache.TTLSeconds <= 0 {
		cfg.RoomCache.TTLSeconds = 300
	}
	if cfg.RoomCache.Capacity <= 0 {
		cfg.RoomCache.Capacity = 1024
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
