package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host    string `mapstructure:"host" validate:"required"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
	// Timezone anchors scheduled jobs (IANA name, e.g. America/Mexico_City)
	Timezone string `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the gorm dialector by Driver.
// For sqlite, Database is the file path (":memory:" is accepted).
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"required,oneof=mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewayConfig holds the payment gateway read API and webhook settings.
type GatewayConfig struct {
	BaseURL     string `mapstructure:"base_url" validate:"required,url"`
	AccessToken string `mapstructure:"access_token"`
	// WebhookSecret enables signature verification when non-empty.
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AllowUnsigned accepts notifications without signature headers even
	// when a secret is configured. Off by default.
	AllowUnsigned bool `mapstructure:"allow_unsigned"`
	// SignatureTolerance bounds the age of the signed timestamp; 0 disables the check.
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"required"`
}

type ReconciliationConfig struct {
	PollAttempts   int           `mapstructure:"poll_attempts" validate:"min=1"`
	PollBaseDelay  time.Duration `mapstructure:"poll_base_delay"`
	PollFactor     float64       `mapstructure:"poll_factor" validate:"min=0"`
	CommitRetries  int           `mapstructure:"commit_retries" validate:"min=0"`
	LockTTL        time.Duration `mapstructure:"lock_ttl" validate:"required"`
	ResyncEnabled  bool          `mapstructure:"resync_enabled"`
	ResyncInterval time.Duration `mapstructure:"resync_interval"`
	ResyncBatch    int           `mapstructure:"resync_batch" validate:"min=1"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}
