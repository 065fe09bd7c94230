package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMECRAFT_BACKEND_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Backend       BackendConfig       `mapstructure:"backend"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Templates     TemplatesConfig     `mapstructure:"templates"`
	Editor        EditorConfig        `mapstructure:"editor"`
	Export        ExportConfig        `mapstructure:"export"`
	Session       SessionConfig       `mapstructure:"session"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Minio         MinioConfig         `mapstructure:"minio"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BackendConfig describes the remote analysis/improvement API.
type BackendConfig struct {
	BaseURL        string               `mapstructure:"baseURL"`
	AuthBaseURL    string               `mapstructure:"authBaseURL"` // Falls back to BaseURL
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	Upload         UploadConfig         `mapstructure:"upload"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// UploadConfig bounds resume uploads before they leave the process.
type UploadConfig struct {
	MaxFileSize  int64    `mapstructure:"maxFileSize"`
	AllowedTypes []string `mapstructure:"allowedTypes"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// AuthConfig holds login and OAuth settings
type AuthConfig struct {
	GoogleClientID     string   `mapstructure:"googleClientID"`
	GoogleClientSecret string   `mapstructure:"googleClientSecret"`
	RedirectURI        string   `mapstructure:"redirectURI"`
	Scopes             []string `mapstructure:"scopes"`
	CookieName         string   `mapstructure:"cookieName"`
	CookieSecure       bool     `mapstructure:"cookieSecure"`
}

// TemplatesConfig controls template descriptor loading
type TemplatesConfig struct {
	Default       string        `mapstructure:"default"`
	Dir           string        `mapstructure:"dir"` // Optional directory of descriptor overrides
	Watch         bool          `mapstructure:"watch"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// EditorConfig holds edit session limits
type EditorConfig struct {
	HistoryDepth  int           `mapstructure:"historyDepth"`
	WorkspaceTTL  time.Duration `mapstructure:"workspaceTTL"`
	MaxWorkspaces int           `mapstructure:"maxWorkspaces"`
}

// ExportConfig selects the print/export strategy
type ExportConfig struct {
	Strategy      string        `mapstructure:"strategy"` // print or pdf
	ChromePath    string        `mapstructure:"chromePath"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Sink          string        `mapstructure:"sink"` // none, local or minio
	OutputDir     string        `mapstructure:"outputDir"`
	PresignExpiry time.Duration `mapstructure:"presignExpiry"`
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend string        `mapstructure:"backend"` // memory or redis
	Channel string        `mapstructure:"channel"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

// MinioConfig holds object storage settings for exported artifacts
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	UseSSL          bool   `mapstructure:"useSSL"`
	Bucket          string `mapstructure:"bucket"`
	Location        string `mapstructure:"location"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	MaxBodySize  int64         `mapstructure:"maxBodySize"`

	TLS TLSConfig `mapstructure:"tls"`

	// API keys accepted on the JSON API in addition to session cookies
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds server TLS configuration
type TLSConfig struct {
	Mode       string `mapstructure:"mode"` // disabled or server
	CertFile   string `mapstructure:"certFile"`
	KeyFile    string `mapstructure:"keyFile"`
	MinVersion string `mapstructure:"minVersion"`

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
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

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	Documents      DocumentMetricsConfig       `mapstructure:"documents"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// DocumentMetricsConfig toggles pipeline metrics (loads, edits, exports, scores)
type DocumentMetricsConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	TrackEdits   bool `mapstructure:"trackEdits"`
	TrackExports bool `mapstructure:"trackExports"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	TrackRateLimits     bool `mapstructure:"trackRateLimits"`
	TrackCircuitBreaker bool `mapstructure:"trackCircuitBreaker"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

const envPrefix = "RESUMECRAFT"

// LoadConfig loads configuration from environment variables and a config file.
// RESUMECRAFT_CONFIG points at an explicit file; otherwise the usual search
// paths are tried.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(os.Getenv(envPrefix + "_CONFIG"))
}

// LoadConfigFrom loads configuration using an explicit config file when path is non-empty.
func LoadConfigFrom(path string) (*Config, error) {
	return load(path, nil)
}

// LoadConfigWithFlags is LoadConfigFrom with command line flags layered on
// top. bindings maps config keys (e.g. "server.port") to flag names; only
// flags the user actually set override the file and environment.
func LoadConfigWithFlags(path string, flags *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	return load(path, func(v *viper.Viper) error {
		for key, name := range bindings {
			f := flags.Lookup(name)
			if f == nil {
				return fmt.Errorf("unknown flag %q bound to %s", name, key)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
		return nil
	})
}

func load(path string, bind func(*viper.Viper) error) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := newViper()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", envPrefix)
	if bind != nil {
		if err := bind(v); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("resumecraft")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/resumecraft/")
		v.AddConfigPath("$HOME/.resumecraft")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/resumecraft/, $HOME/.resumecraft, .")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return config, nil
}

// Default returns the configuration built from defaults and environment only.
func Default() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.applyFallbacks()
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (set %s_BACKEND_BASEURL)", envPrefix)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Backend.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("backend upload maxFileSize must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Editor.HistoryDepth <= 0 {
		return fmt.Errorf("editor historyDepth must be positive")
	}

	switch c.Export.Strategy {
	case "print", "pdf":
	default:
		return fmt.Errorf("invalid export strategy: %s (must be 'print' or 'pdf')", c.Export.Strategy)
	}

	switch c.Export.Sink {
	case "none", "":
	case "local":
		if c.Export.OutputDir == "" {
			return fmt.Errorf("export outputDir is required for the local sink")
		}
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket are required for the minio sink")
		}
	default:
		return fmt.Errorf("invalid export sink: %s (must be 'none', 'local' or 'minio')", c.Export.Sink)
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be 'memory' or 'redis')", c.Session.Backend)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// AuthBaseURL returns the base URL used for login and signup calls.
func (c *Config) AuthBaseURL() string {
	if c.Backend.AuthBaseURL != "" {
		return c.Backend.AuthBaseURL
	}
	return c.Backend.BaseURL
}

// applyFallbacks fills values that depend on other settings
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 1 && strings.Contains(c.Server.APIKeys[0], ",") {
		c.Server.APIKeys = splitAndTrim(c.Server.APIKeys[0])
	}

	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	c.Backend.AuthBaseURL = strings.TrimRight(c.Backend.AuthBaseURL, "/")

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}

	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		envPrefix + "_BACKEND_BASEURL",
		envPrefix + "_BACKEND_APIKEY",
		envPrefix + "_AUTH_GOOGLECLIENTID",
		envPrefix + "_SERVER_PORT",
		envPrefix + "_SERVER_HOST",
		envPrefix + "_APP_LOGLEVEL",
		envPrefix + "_EXPORT_STRATEGY",
		envPrefix + "_SESSION_BACKEND",
		envPrefix + "_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Backend: %s", c.Backend.BaseURL)
	if c.Backend.APIKey != "" {
		log.Println("[CONFIG] Backend API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Backend API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Default Template: %s", c.Templates.Default)
	log.Printf("[CONFIG] Export Strategy: %s (sink: %s)", c.Export.Strategy, c.Export.Sink)
	log.Printf("[CONFIG] Session Backend: %s", c.Session.Backend)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
