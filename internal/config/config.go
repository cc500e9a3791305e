package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CAREERMATCH_STORE_DRIVER.
const EnvPrefix = "CAREERMATCH"

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (CAREERMATCH_AI_APIKEY, etc.) and .env files
// 4. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Store         StoreConfig         `mapstructure:"store"`
	Reports       ReportsConfig       `mapstructure:"reports"`
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// EngineConfig holds default result sizes for recommendations
type EngineConfig struct {
	TopCareers int `mapstructure:"topCareers"` // Careers returned by recommend
	TopGaps    int `mapstructure:"topGaps"`    // Improvement areas per career
}

// CatalogConfig points at an optional career catalog file
type CatalogConfig struct {
	File string `mapstructure:"file"` // YAML or JSON; empty uses the built-in catalog
}

// StoreConfig selects and configures the profile store
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // file, memory, postgres
	Path            string        `mapstructure:"path"`   // JSON file for the file driver
	DatabaseURL     string        `mapstructure:"databaseURL"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	PingTimeout     time.Duration `mapstructure:"pingTimeout"`
}

// ReportsConfig selects where saved reports are written
type ReportsConfig struct {
	Sink string   `mapstructure:"sink"` // local, s3
	Dir  string   `mapstructure:"dir"`  // Directory for the local sink
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds the S3 report sink settings
type S3Config struct {
	Bucket               string `mapstructure:"bucket"`
	Region               string `mapstructure:"region"`
	Prefix               string `mapstructure:"prefix"`
	Endpoint             string `mapstructure:"endpoint"` // Custom endpoint for S3-compatible storage
	UsePathStyle         bool   `mapstructure:"usePathStyle"`
	ServerSideEncryption string `mapstructure:"serverSideEncryption"` // AES256, aws:kms or empty
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode             string           `mapstructure:"mode"`     // disabled, server, mutual
	CertFile         string           `mapstructure:"certFile"` // Server certificate (PEM)
	KeyFile          string           `mapstructure:"keyFile"`  // Server private key (PEM)
	CAFile           string           `mapstructure:"caFile"`   // Client CA bundle, mutual mode only
	MinVersion       string           `mapstructure:"minVersion"`
	ClientAuthPolicy string           `mapstructure:"clientAuthPolicy"` // require, request, verify
	AutoReload       AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls certificate hot reload on file changes
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"` // Idle limiters older than this are dropped
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// dotEnvFiles are loaded before the environment is read. Missing files are
// skipped and variables already set win.
var dotEnvFiles = []string{".env", ".env.local"}

// LoadConfig loads configuration from defaults, .env files, the environment
// and a config file. An explicit configFile replaces the search paths.
func LoadConfig(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	loadDotEnv(dotEnvFiles)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/careermatch/")
		v.AddConfigPath("$HOME/.careermatch")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadAdvisorPrompt(); err != nil {
		return nil, fmt.Errorf("failed to load advisor prompt: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

func loadDotEnv(files []string) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("[CONFIG] Ignoring unreadable env file %s: %v", file, err)
			continue
		}
		log.Printf("[CONFIG] Loaded environment from %s", file)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.App.LogLevel)
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Engine.TopCareers < 0 {
		return fmt.Errorf("engine.topCareers must not be negative")
	}
	if c.Engine.TopGaps < 0 {
		return fmt.Errorf("engine.topGaps must not be negative")
	}

	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateReports(); err != nil {
		return err
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.CircuitBreaker.FailureThreshold < 0 || c.AI.CircuitBreaker.FailureThreshold > 1 {
		return fmt.Errorf("circuit breaker failure threshold must be between 0 and 1")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("rate limit requestsPerMin must be positive when rate limiting is enabled")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "file":
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path is required for the file driver")
		}
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'file', 'memory', or 'postgres')", c.Store.Driver)
	}
	return nil
}

func (c *Config) validateReports() error {
	switch c.Reports.Sink {
	case "local":
		if strings.TrimSpace(c.Reports.Dir) == "" {
			return fmt.Errorf("reports.dir is required for the local sink")
		}
	case "s3":
		if c.Reports.S3.Bucket == "" {
			return fmt.Errorf("reports.s3.bucket is required for the s3 sink")
		}
		switch c.Reports.S3.ServerSideEncryption {
		case "", "AES256", "aws:kms":
		default:
			return fmt.Errorf("invalid reports.s3.serverSideEncryption: %s", c.Reports.S3.ServerSideEncryption)
		}
	default:
		return fmt.Errorf("invalid report sink: %s (must be 'local' or 's3')", c.Reports.Sink)
	}
	return nil
}
