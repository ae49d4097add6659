package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all adapter settings.
type Config struct {
	FileMaker FileMakerConfig
	Redis     RedisConfig
	Cache     CacheConfig
}

// FileMakerConfig describes the remote store endpoint and its
// authentication mode.
type FileMakerConfig struct {
	// Server is the scheme+host of the FileMaker server, e.g.
	// "https://fms.example.com".
	Server string `mapstructure:"server"`

	// Database is the database every layout belongs to.
	Database string `mapstructure:"database"`

	// Port is the Data API port. 0 means the client default (3030).
	Port int `mapstructure:"port"`

	// AuthMode selects the token strategy: "apikey" sends a pre-issued
	// key on every request, "credentials" exchanges username/password
	// for a session token and refreshes it after a 401.
	AuthMode string `mapstructure:"auth_mode"`

	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// TimeoutSec bounds each HTTP request. 0 means the client default.
	TimeoutSec int `mapstructure:"timeout_sec"`
}

// Auth mode values for FileMakerConfig.AuthMode.
const (
	AuthModeAPIKey      = "apikey"
	AuthModeCredentials = "credentials"
)

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode is the Redis deployment mode ("single", "sentinel",
	// "cluster"). Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs lists Redis addresses (host:port), used by all modes. For
	// 'single', the first address wins when non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr is the alternative single-mode address, used when Mode is
	// "single" and Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName names the Redis master (sentinel mode only).
	MasterName string `mapstructure:"master_name"`

	// MaxRetries caps command retries. -1 disables them, 0 keeps the
	// client default.
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff is the minimum interval between attempts, in
	// milliseconds. Defaults to 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff is the maximum interval between attempts, in
	// milliseconds. Defaults to 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// CacheConfig controls the optional identity cache. When Enabled is
// false the adapter runs remote-only and the Redis section is ignored.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// KeyPrefixes override the default cache key scheme. Empty fields
	// keep the defaults.
	KeyPrefixes KeyPrefixesConfig `mapstructure:"key_prefixes"`
}

// KeyPrefixesConfig mirrors the identity cache key scheme.
type KeyPrefixesConfig struct {
	Base              string `mapstructure:"base"`
	User              string `mapstructure:"user"`
	Email             string `mapstructure:"email"`
	Session           string `mapstructure:"session"`
	SessionByUserID   string `mapstructure:"session_by_user_id"`
	Account           string `mapstructure:"account"`
	AccountByUserID   string `mapstructure:"account_by_user_id"`
	VerificationToken string `mapstructure:"verification_token"`
}

// Timeout returns the configured HTTP timeout.
func (f *FileMakerConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// Validate checks that the auth mode has the settings it needs.
func (f *FileMakerConfig) Validate() error {
	if f.Server == "" {
		return fmt.Errorf("filemaker server is required")
	}
	if f.Database == "" {
		return fmt.Errorf("filemaker database is required")
	}
	switch f.AuthMode {
	case AuthModeAPIKey:
		if f.APIKey == "" {
			return fmt.Errorf("filemaker api_key is required in apikey mode")
		}
	case AuthModeCredentials:
		if f.Username == "" || f.Password == "" {
			return fmt.Errorf("filemaker username and password are required in credentials mode")
		}
	default:
		return fmt.Errorf("unsupported filemaker auth_mode: %q", f.AuthMode)
	}
	return nil
}

// Load reads the configuration from the file at configPath and from the
// environment. Environment variables are bound explicitly so the
// mapping stays auditable.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("filemaker.auth_mode", AuthModeAPIKey)
	vip.SetDefault("cache.enabled", false)

	vip.BindEnv("filemaker.server", "FILEMAKER_SERVER")
	vip.BindEnv("filemaker.database", "FILEMAKER_DATABASE")
	vip.BindEnv("filemaker.port", "FILEMAKER_PORT")
	vip.BindEnv("filemaker.auth_mode", "FILEMAKER_AUTH_MODE")
	vip.BindEnv("filemaker.api_key", "FILEMAKER_API_KEY")
	vip.BindEnv("filemaker.username", "FILEMAKER_USERNAME")
	vip.BindEnv("filemaker.password", "FILEMAKER_PASSWORD")
	vip.BindEnv("filemaker.timeout_sec", "FILEMAKER_TIMEOUT_SEC")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("cache.enabled", "CACHE_ENABLED")
	vip.BindEnv("cache.key_prefixes.base", "CACHE_KEY_PREFIX_BASE")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				log.Printf("Config file %q not found, relying on environment variables.", configPath)
			} else {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.FileMaker.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
