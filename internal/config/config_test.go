package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeCLI {
		t.Errorf("Expected default mode to be 'cli', got '%s'", cfg.Mode)
	}
	if cfg.ServerName != "bizharvest" {
		t.Errorf("Expected default server name to be 'bizharvest', got '%s'", cfg.ServerName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("Expected default max file size to be 50MB, got %d", cfg.MaxFileSize)
	}
	if cfg.Workers != 5 {
		t.Errorf("Expected 5 workers, got %d", cfg.Workers)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected 30s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.MaxURLs != 50 {
		t.Errorf("Expected max URLs 50, got %d", cfg.MaxURLs)
	}
	if cfg.StrictMode {
		t.Error("Expected liberal mode by default")
	}
	if cfg.OutputFormat != FormatJSON {
		t.Errorf("Expected json output, got '%s'", cfg.OutputFormat)
	}
	if cfg.PrimaryLibrary != "ledongthuc" || cfg.FallbackLibrary != "pdfcpu" {
		t.Errorf("Unexpected default libraries: %s/%s", cfg.PrimaryLibrary, cfg.FallbackLibrary)
	}
	if len(cfg.TrustedDomains) == 0 {
		t.Error("Expected default trusted domains")
	}

	currentDir, _ := os.Getwd()
	if cfg.DocumentDirectory != currentDir {
		t.Errorf("Expected default document directory to be '%s', got '%s'", currentDir, cfg.DocumentDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()

	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.DocumentDirectory = tempDir
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid cli config", modify: func(*Config) {}},
		{name: "valid stdio config", modify: func(c *Config) { c.Mode = ModeStdio }},
		{name: "invalid mode", modify: func(c *Config) { c.Mode = "server" }, wantErr: "mode must be"},
		{name: "empty directory", modify: func(c *Config) { c.DocumentDirectory = "" }, wantErr: "cannot be empty"},
		{name: "zero file size", modify: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "file size"},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "zero timeout", modify: func(c *Config) { c.FetchTimeout = 0 }, wantErr: "timeout"},
		{name: "zero max urls", modify: func(c *Config) { c.MaxURLs = 0 }, wantErr: "max URLs"},
		{name: "negative rate limit", modify: func(c *Config) { c.RateLimit = -1 }, wantErr: "rate limit"},
		{name: "invalid log level", modify: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
		{name: "invalid output", modify: func(c *Config) { c.OutputFormat = "xml" }, wantErr: "invalid output format"},
		{name: "invalid primary library", modify: func(c *Config) { c.PrimaryLibrary = "mupdf" }, wantErr: "primary library"},
		{name: "invalid fallback library", modify: func(c *Config) { c.FallbackLibrary = "" }, wantErr: "fallback library"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got none", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigValidate_CreatesDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DocumentDirectory = filepath.Join(t.TempDir(), "nested", "pdfs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(cfg.DocumentDirectory); err != nil || !info.IsDir() {
		t.Errorf("expected directory %s to be created", cfg.DocumentDirectory)
	}
}

func TestLibraryFactory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrimaryLibrary = " PDFCPU "
	cfg.FallbackLibrary = "ledongthuc"

	factory, err := cfg.LibraryFactory()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := factory.GetConfig()
	if got.PrimaryLibrary != "pdfcpu" || got.FallbackLibrary != "ledongthuc" {
		t.Errorf("unexpected factory config: %+v", got)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsDebug() {
		t.Error("default config should not be debug")
	}
	if cfg.IsStdioMode() {
		t.Error("default config should not be stdio mode")
	}

	cfg.LogLevel = "debug"
	cfg.Mode = ModeStdio
	if !cfg.IsDebug() || !cfg.IsStdioMode() {
		t.Error("expected debug stdio config")
	}

	s := cfg.String()
	for _, want := range []string{"Mode: stdio", "Workers: 5", "MaxURLs: 50", "Output: json"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, missing %q", s, want)
		}
	}
}
