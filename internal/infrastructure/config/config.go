// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SURPRISE_SEARCH_APP_KEY overrides search.app_key.
const EnvPrefix = "SURPRISE"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Search     SearchConfig     `mapstructure:"search"`
	Session    SessionConfig    `mapstructure:"session"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	// TemplatesDir switches template loading from the embedded copy to a
	// directory on disk that is watched for changes. Development only.
	TemplatesDir string `mapstructure:"templates_dir"`
}

// SearchConfig describes the recipe search API the frontend queries
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	AppID   string `mapstructure:"app_id"`
	AppKey  string `mapstructure:"app_key"`
	// Timeout of zero leaves the request bounded only by the transport.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig controls the in-memory page sessions
type SessionConfig struct {
	CookieName      string        `mapstructure:"cookie_name"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	ReadinessPath   string  `mapstructure:"readiness_path"`
	LivenessPath    string  `mapstructure:"liveness_path"`
	// CheckUpstream adds a reachability probe of the search API to /health
	CheckUpstream bool `mapstructure:"check_upstream"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/surprise")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Surprise Me")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.templates_dir", "")

	v.SetDefault("search.base_url", "https://api.edamam.com/api/recipes/v2")
	v.SetDefault("search.app_id", "")
	v.SetDefault("search.app_key", "")
	v.SetDefault("search.timeout", "0s")

	v.SetDefault("session.cookie_name", "surprise-session")
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.cleanup_interval", "5m")
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.readiness_path", "/ready")
	v.SetDefault("monitoring.liveness_path", "/live")
	v.SetDefault("monitoring.check_upstream", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	u, err := url.Parse(c.Search.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("search.base_url must be an absolute URL, got %q", c.Search.BaseURL)
	}

	if c.Search.Timeout < 0 {
		return fmt.Errorf("search.timeout must not be negative")
	}

	if c.IsProduction() && (c.Search.AppID == "" || c.Search.AppKey == "") {
		return fmt.Errorf("search.app_id and search.app_key are required in production")
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the listen address for the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
