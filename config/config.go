package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	KV            KVConfig
	Auth          AuthConfig
	Cache         CacheConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
	AppEnv  string
	BaseURL string
}

// KVConfig describes the hosted Redis-compatible store reached over REST.
type KVConfig struct {
	RestURL     string
	RestToken   string
	WorkOffline bool
}

type AuthConfig struct {
	// WebhookAPIKey is the single process-wide secret gating the webhook
	// management endpoints. Any holder can manage any project's webhooks.
	WebhookAPIKey string
}

type CacheConfig struct {
	TokenTTLSeconds int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	OTLPEndpoint      string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("KV_WORK_OFFLINE", false)
	v.SetDefault("TOKEN_CACHE_TTL", 30) // seconds
	v.SetDefault("O11Y_SERVICE_NAME", "datamon-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "datamon")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "datamon-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			GinMode: v.GetString("GIN_MODE"),
			AppEnv:  v.GetString("APP_ENV"),
			BaseURL: v.GetString("BASE_URL"),
		},
		KV: KVConfig{
			RestURL:     v.GetString("UPSTASH_REDIS_REST_URL"),
			RestToken:   v.GetString("UPSTASH_REDIS_REST_TOKEN"),
			WorkOffline: v.GetBool("KV_WORK_OFFLINE"),
		},
		Auth: AuthConfig{
			WebhookAPIKey: v.GetString("WEBHOOK_API_KEY"),
		},
		Cache: CacheConfig{
			TokenTTLSeconds: v.GetInt("TOKEN_CACHE_TTL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint:      v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Store credentials must be present unless running against the in-memory store
	if !c.KV.WorkOffline {
		if c.KV.RestURL == "" {
			return fmt.Errorf("UPSTASH_REDIS_REST_URL is required when not in offline mode")
		}
		if c.KV.RestToken == "" {
			return fmt.Errorf("UPSTASH_REDIS_REST_TOKEN is required when not in offline mode")
		}
	}

	if c.Auth.WebhookAPIKey == "" {
		return fmt.Errorf("WEBHOOK_API_KEY is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
