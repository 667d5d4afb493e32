package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the resolver service
type Config struct {
	// Instagram session settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Resolution engine settings
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`

	// HTTP service settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Retry behavior for upstream calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Batch download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	SessionToken string `yaml:"session_token" json:"session_token"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
}

// ResolverConfig holds resolution engine configuration
type ResolverConfig struct {
	CacheTTL       time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ServerConfig holds HTTP service configuration
type ServerConfig struct {
	Address           string        `yaml:"address" json:"address"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	ReadTimeout       time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// RetryConfig holds retry behavior for upstream HTTP calls
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay      time.Duration `yaml:"base_delay" json:"base_delay"`
	TransportDelay time.Duration `yaml:"transport_delay" json:"transport_delay"`
}

// DownloadConfig holds batch download configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	OutputDirectory     string        `yaml:"output_directory" json:"output_directory"`
	StartNumber         int           `yaml:"start_number" json:"start_number"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Resolver: ResolverConfig{
			CacheTTL:       5 * time.Minute,
			SweepInterval:  time.Minute,
			RequestTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Address:           ":8080",
			RequestsPerMinute: 60,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			BaseDelay:      time.Second,
			TransportDelay: time.Second,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     2 * time.Minute,
			OutputDirectory:     "./downloads",
			StartNumber:         1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// a .env file if present, and environment overrides, in that order.
func Load(path string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("IGRESOLVER_SESSION_TOKEN"); token != "" {
		c.Instagram.SessionToken = token
	}
	if userAgent := os.Getenv("IGRESOLVER_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}

	if addr := os.Getenv("IGRESOLVER_LISTEN_ADDR"); addr != "" {
		c.Server.Address = addr
	}
	if rpm := os.Getenv("IGRESOLVER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Server.RequestsPerMinute = val
		}
	}

	if ttl := os.Getenv("IGRESOLVER_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			c.Resolver.CacheTTL = d
		}
	}

	if outputDir := os.Getenv("IGRESOLVER_OUTPUT_DIR"); outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if concurrent := os.Getenv("IGRESOLVER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if logLevel := os.Getenv("IGRESOLVER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".igresolver.yaml",
		".igresolver.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igresolver", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igresolver", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igresolver.yaml"),
		filepath.Join(os.Getenv("HOME"), ".igresolver.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Resolver.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache TTL must be positive"))
	}
	if c.Resolver.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.StartNumber < 0 {
		errs = append(errs, errors.New("start number must not be negative"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %s", c.Logging.Level))
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	return nil
}
