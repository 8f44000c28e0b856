package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// newFlags returns a parsed flag set with the configuration flags
func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("bizharvest", pflag.ContinueOnError)
	DefineFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return fs
}

// isolate runs the test from an empty working directory so no stray
// config.yaml is picked up
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(viper.New(), newFlags(t), ModeCLI)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != ModeCLI {
		t.Errorf("Load() Mode = %v, want %v", cfg.Mode, ModeCLI)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Load() Workers = %v, want %v", cfg.Workers, DefaultWorkers)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("Load() FetchTimeout = %v, want %v", cfg.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.OutputFormat != FormatJSON {
		t.Errorf("Load() OutputFormat = %v, want json", cfg.OutputFormat)
	}

	realDir, _ := filepath.EvalSymlinks(dir)
	gotDir, _ := filepath.EvalSymlinks(cfg.DocumentDirectory)
	if gotDir != realDir {
		t.Errorf("Load() DocumentDirectory = %v, want %v", gotDir, realDir)
	}
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)
	docs := t.TempDir()

	fs := newFlags(t,
		"--dir", docs,
		"--log-level", "DEBUG",
		"--workers", "8",
		"--timeout", "5s",
		"--max-urls", "10",
		"--rate-limit", "2.5",
		"--strict",
		"--trusted-domains", "a.gov,b.org",
		"--primary-library", "pdfcpu",
		"--fallback-library", "ledongthuc",
		"-o", "markdown",
	)

	cfg, err := Load(viper.New(), fs, ModeStdio)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.DocumentDirectory != docs {
		t.Errorf("DocumentDirectory = %v, want %v", cfg.DocumentDirectory, docs)
	}
	if !cfg.IsDebug() {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Workers != 8 || cfg.MaxURLs != 10 {
		t.Errorf("Workers/MaxURLs = %d/%d, want 8/10", cfg.Workers, cfg.MaxURLs)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if !cfg.StrictMode {
		t.Error("StrictMode = false, want true")
	}
	if strings.Join(cfg.TrustedDomains, ",") != "a.gov,b.org" {
		t.Errorf("TrustedDomains = %v", cfg.TrustedDomains)
	}
	if cfg.PrimaryLibrary != "pdfcpu" || cfg.FallbackLibrary != "ledongthuc" {
		t.Errorf("libraries = %s/%s", cfg.PrimaryLibrary, cfg.FallbackLibrary)
	}
	if cfg.OutputFormat != FormatMarkdown {
		t.Errorf("OutputFormat = %v, want markdown", cfg.OutputFormat)
	}
	if !cfg.IsStdioMode() {
		t.Error("expected stdio mode")
	}
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("BIZHARVEST_WORKERS", "3")
	t.Setenv("BIZHARVEST_LOG_LEVEL", "warn")
	t.Setenv("BIZHARVEST_MAX_URLS", "7")
	t.Setenv("BIZHARVEST_STRICT", "true")

	cfg, err := Load(viper.New(), newFlags(t), ModeCLI)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
	if cfg.MaxURLs != 7 {
		t.Errorf("MaxURLs = %d, want 7", cfg.MaxURLs)
	}
	if !cfg.StrictMode {
		t.Error("StrictMode = false, want true")
	}

	// Flags take precedence over the environment
	cfg, err = Load(viper.New(), newFlags(t, "--workers", "9"), ModeCLI)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Workers != 9 {
		t.Errorf("Workers = %d, want 9", cfg.Workers)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	content := "workers: 4\ntimeout: 10s\noutput: yaml\ntrusted-domains:\n  - qkb.gov.al\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), newFlags(t), ModeCLI)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.OutputFormat != FormatYAML {
		t.Errorf("OutputFormat = %s, want yaml", cfg.OutputFormat)
	}
	if len(cfg.TrustedDomains) != 1 || cfg.TrustedDomains[0] != "qkb.gov.al" {
		t.Errorf("TrustedDomains = %v", cfg.TrustedDomains)
	}
	if filepath.Base(cfg.ConfigFile) != "config.yaml" {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	if err := os.WriteFile(path, []byte("max-urls: 12\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(viper.New(), newFlags(t, "--config", path), ModeCLI)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.MaxURLs != 12 {
		t.Errorf("MaxURLs = %d, want 12", cfg.MaxURLs)
	}

	_, err = Load(viper.New(), newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")), ModeCLI)
	if err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid log level", args: []string{"--log-level", "verbose"}},
		{name: "invalid output", args: []string{"--output", "csv"}},
		{name: "zero workers", args: []string{"--workers", "0"}},
		{name: "unknown library", args: []string{"--primary-library", "poppler"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), newFlags(t, tt.args...), ModeCLI)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
