// The application's root configuration.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Salesforce SalesforceConfig `mapstructure:"salesforce"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" json:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error string `mapstructure:"error" json:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig holds settings for reaching the user's browser.
type BrowserConfig struct {
	// DevToolsURL is the DevTools endpoint of an already-running Chrome
	// started with --remote-debugging-port.
	DevToolsURL string `mapstructure:"devtools_url"`
	// LaunchIfMissing starts a browser when attaching fails. The login
	// flow needs a visible window, so launches are headful by default.
	LaunchIfMissing bool     `mapstructure:"launch_if_missing"`
	Headless        bool     `mapstructure:"headless"`
	ExecArgs        []string `mapstructure:"exec_args"`
	// TabFilter narrows tab selection to URLs containing this substring.
	TabFilter string `mapstructure:"tab_filter"`
}

// SalesforceConfig holds org-facing settings.
type SalesforceConfig struct {
	// ProbeAPIVersion is the REST version used for the lightweight
	// limits probe and the listing calls.
	ProbeAPIVersion string `mapstructure:"probe_api_version"`
	// DefaultAPIVersion is written into generated manifests when no
	// explicit version is chosen.
	DefaultAPIVersion string `mapstructure:"default_api_version"`
	// DefaultTypes is the fallback metadata type list shown when the org
	// cannot be asked.
	DefaultTypes     []string      `mapstructure:"default_types"`
	ValidateTimeout  time.Duration `mapstructure:"validate_timeout"`
	PageProbeTimeout time.Duration `mapstructure:"page_probe_timeout"`
	LoginTimeout     time.Duration `mapstructure:"login_timeout"`
}

// CacheConfig holds TTLs for the session and listing caches.
type CacheConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	ListingTTL time.Duration `mapstructure:"listing_ttl"`
	// DBPath is the SQLite file backing the listing caches and
	// persisted preferences.
	DBPath string `mapstructure:"db_path"`
}

// Validate checks the configuration for values the rest of the program
// cannot recover from.
func (c *Config) Validate() error {
	if c.Browser.DevToolsURL == "" && !c.Browser.LaunchIfMissing {
		return fmt.Errorf("browser.devtools_url is empty and browser.launch_if_missing is disabled; no way to reach a browser")
	}
	if c.Salesforce.ProbeAPIVersion == "" {
		return fmt.Errorf("salesforce.probe_api_version must not be empty")
	}
	if c.Cache.SessionTTL <= 0 {
		return fmt.Errorf("cache.session_ttl must be positive, got %s", c.Cache.SessionTTL)
	}
	if c.Cache.ListingTTL <= 0 {
		return fmt.Errorf("cache.listing_ttl must be positive, got %s", c.Cache.ListingTTL)
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
