package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/bizharvest/internal/fetch"
	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeCLI   = "cli"

	// Output formats
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultWorkers      = 5
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxURLs      = 50
	DefaultOutputFormat = FormatJSON

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "BIZHARVEST"
	// AppName names the directory searched under the XDG config home
	AppName = "bizharvest"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the harvester CLI and MCP server
type Config struct {
	// Mode is stdio when serving MCP and cli otherwise
	Mode string

	// Document directory exposed to file based tools
	DocumentDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF size in bytes, for local files and downloads

	// Harvest configuration
	Workers        int
	FetchTimeout   time.Duration
	MaxURLs        int
	RateLimit      float64 // requests per second, 0 disables throttling
	StrictMode     bool
	TrustedDomains []string

	// PDF backends
	PrimaryLibrary  string
	FallbackLibrary string

	OutputFormat string

	// ConfigFile is the file the configuration was read from, if any
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	factory := wrapper.DefaultFactoryConfig()
	return &Config{
		Mode:              ModeCLI,
		DocumentDirectory: currentDir,
		Version:           "1.0.0",
		ServerName:        "bizharvest",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
		Workers:           DefaultWorkers,
		FetchTimeout:      DefaultFetchTimeout,
		MaxURLs:           DefaultMaxURLs,
		TrustedDomains:    append([]string(nil), fetch.DefaultTrustedDomains...),
		PrimaryLibrary:    string(factory.PrimaryLibrary),
		FallbackLibrary:   string(factory.FallbackLibrary),
		OutputFormat:      DefaultOutputFormat,
	}
}

// DefineFlags registers the configuration flags on fs
func DefineFlags(fs *pflag.FlagSet) {
	cfg := DefaultConfig()
	fs.String("config", "", "Config file (default: $XDG_CONFIG_HOME/bizharvest/config.yaml or ./config.yaml)")
	fs.String("dir", cfg.DocumentDirectory, "Directory containing PDF files")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("workers", cfg.Workers, "Number of concurrent pipeline steps")
	fs.Duration("timeout", cfg.FetchTimeout, "Timeout for a single download")
	fs.Int("max-urls", cfg.MaxURLs, "Maximum number of URLs fetched per harvest")
	fs.Float64("rate-limit", cfg.RateLimit, "Maximum requests per second (0 = unlimited)")
	fs.Bool("strict", cfg.StrictMode, "Only fetch URLs that look like PDF documents")
	fs.StringSlice("trusted-domains", cfg.TrustedDomains, "Domains whose large non-PDF responses are still accepted")
	fs.String("primary-library", cfg.PrimaryLibrary, "Primary PDF library (ledongthuc, pdfcpu)")
	fs.String("fallback-library", cfg.FallbackLibrary, "Fallback PDF library (ledongthuc, pdfcpu)")
	fs.StringP("output", "o", cfg.OutputFormat, "Output format (json, yaml, markdown)")
}

// Load builds a configuration from defaults, the config file, environment
// variables and the flags in fs, in increasing order of precedence
func Load(v *viper.Viper, fs *pflag.FlagSet, mode string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Mode = mode

	setupViperEnvironment(v, cfg)
	if err := bindFlagsToViper(v, fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)

	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", cfg.DocumentDirectory)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("timeout", cfg.FetchTimeout)
	v.SetDefault("max-urls", cfg.MaxURLs)
	v.SetDefault("rate-limit", cfg.RateLimit)
	v.SetDefault("strict", cfg.StrictMode)
	v.SetDefault("trusted-domains", cfg.TrustedDomains)
	v.SetDefault("primary-library", cfg.PrimaryLibrary)
	v.SetDefault("fallback-library", cfg.FallbackLibrary)
	v.SetDefault("output", cfg.OutputFormat)
}

// bindFlagsToViper binds every flag of fs under its own name
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	return v.BindPFlags(fs)
}

// readConfigFile loads an explicit --config file, or searches the XDG config
// home and the working directory. A missing search result is not an error.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.DocumentDirectory = v.GetString("dir")
	cfg.LogLevel = strings.ToLower(v.GetString("log-level"))
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.Workers = v.GetInt("workers")
	cfg.FetchTimeout = v.GetDuration("timeout")
	cfg.MaxURLs = v.GetInt("max-urls")
	cfg.RateLimit = v.GetFloat64("rate-limit")
	cfg.StrictMode = v.GetBool("strict")
	cfg.TrustedDomains = v.GetStringSlice("trusted-domains")
	cfg.PrimaryLibrary = v.GetString("primary-library")
	cfg.FallbackLibrary = v.GetString("fallback-library")
	cfg.OutputFormat = strings.ToLower(v.GetString("output"))
	cfg.ConfigFile = v.ConfigFileUsed()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeCLI {
		return errors.New("mode must be either 'stdio' or 'cli'")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	// Create the document directory if it doesn't exist
	if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if c.MaxURLs <= 0 {
		return errors.New("max URLs must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	switch c.OutputFormat {
	case FormatJSON, FormatYAML, FormatMarkdown:
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: json, yaml, markdown)", c.OutputFormat)
	}

	if _, err := c.LibraryFactory(); err != nil {
		return err
	}

	return nil
}

// LibraryFactory returns a PDF library factory for the configured backends
func (c *Config) LibraryFactory() (*wrapper.PDFLibraryFactory, error) {
	primary, err := wrapper.ParseLibraryType(c.PrimaryLibrary)
	if err != nil {
		return nil, fmt.Errorf("invalid primary library: %w", err)
	}
	fallback, err := wrapper.ParseLibraryType(c.FallbackLibrary)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback library: %w", err)
	}
	return wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
		PrimaryLibrary:  primary,
		FallbackLibrary: fallback,
	}), nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true when serving MCP over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, DocumentDirectory: %s, LogLevel: %s, MaxFileSize: %d, Workers: %d, "+
		"FetchTimeout: %s, MaxURLs: %d, RateLimit: %g, StrictMode: %t, Output: %s}",
		c.Mode, c.DocumentDirectory, c.LogLevel, c.MaxFileSize, c.Workers,
		c.FetchTimeout, c.MaxURLs, c.RateLimit, c.StrictMode, c.OutputFormat)
}
