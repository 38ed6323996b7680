package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/paysync/internal/shared/config"
	"github.com/orris-inc/paysync/internal/shared/utils"
)

type Config struct {
	Server         sharedConfig.ServerConfig         `mapstructure:"server" validate:"required"`
	Database       sharedConfig.DatabaseConfig       `mapstructure:"database" validate:"required"`
	Logger         sharedConfig.LoggerConfig         `mapstructure:"logger"`
	Redis          sharedConfig.RedisConfig          `mapstructure:"redis"`
	Gateway        sharedConfig.GatewayConfig        `mapstructure:"gateway" validate:"required"`
	Reconciliation sharedConfig.ReconciliationConfig `mapstructure:"reconciliation" validate:"required"`
	RateLimit      sharedConfig.RateLimitConfig      `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults and PAYSYNC_* variables still apply.
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("PAYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := utils.ValidateStruct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.timezone", "UTC")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "paysync.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Gateway defaults
	v.SetDefault("gateway.base_url", "https://api.mercadopago.com")
	v.SetDefault("gateway.access_token", "")
	v.SetDefault("gateway.webhook_secret", "")
	v.SetDefault("gateway.allow_unsigned", false)
	v.SetDefault("gateway.signature_tolerance", 0)
	v.SetDefault("gateway.timeout", 15*time.Second)

	// Reconciliation defaults
	v.SetDefault("reconciliation.poll_attempts", 5)
	v.SetDefault("reconciliation.poll_base_delay", 500*time.Millisecond)
	v.SetDefault("reconciliation.poll_factor", 1.0)
	v.SetDefault("reconciliation.commit_retries", 3)
	v.SetDefault("reconciliation.lock_ttl", 30*time.Second)
	v.SetDefault("reconciliation.resync_enabled", false)
	v.SetDefault("reconciliation.resync_interval", 6*time.Hour)
	v.SetDefault("reconciliation.resync_batch", 200)

	// Rate limit defaults (requires redis)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.limit", 120)
	v.SetDefault("ratelimit.window", time.Minute)
}
