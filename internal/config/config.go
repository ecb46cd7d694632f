package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Manifest ManifestConfig `mapstructure:"manifest"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ManifestConfig points at the content provider
type ManifestConfig struct {
	URL       string `mapstructure:"url"`        // Full manifest payload
	LatestURL string `mapstructure:"latest_url"` // Fingerprint-only endpoint
}

// CacheConfig holds durable store configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Manifest: ManifestConfig{},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelf", "shelf.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelf", "shelf.log")
	}
}

func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelf", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelf", "cache")
	}
}

func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelf")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("SHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.applyDerived()
	return cfg, nil
}

// applyDerived fills in values that follow from others: the latest
// endpoint defaults to latest.json next to the manifest.
func (c *Config) applyDerived() {
	if c.Manifest.LatestURL != "" || c.Manifest.URL == "" {
		return
	}
	u, err := url.Parse(c.Manifest.URL)
	if err != nil {
		return
	}
	u.Path = filepath.ToSlash(filepath.Join(filepath.Dir(u.Path), "latest.json"))
	c.Manifest.LatestURL = u.String()
}

// IsConfigured returns true if the manifest endpoint is set
func (c *Config) IsConfigured() bool {
	return c.Manifest.URL != ""
}

// StorePath returns the BoltDB file location inside the cache dir.
func (c *Config) StorePath() string {
	return filepath.Join(c.Cache.Dir, "catalogue.db")
}
