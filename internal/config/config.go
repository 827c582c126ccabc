// Package config loads quill's configuration from its config file,
// environment, and defaults, in that order of increasing precedence
// for env over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// NotesDir is the directory of local note files.
	NotesDir string `mapstructure:"notes_dir"`

	// StorePath is the binding store location. With StoreBackend
	// "file" this is a JSON file; with "sqlite" a database file.
	StorePath    string `mapstructure:"store_path"`
	StoreBackend string `mapstructure:"store_backend"`

	// Remote service connection.
	RemoteBaseURL string `mapstructure:"remote_base_url"`
	TokenFile     string `mapstructure:"token_file"`

	// Title/subtitle promotion for parsed notes.
	PromoteTitle    bool `mapstructure:"promote_title"`
	PromoteSubtitle bool `mapstructure:"promote_subtitle"`

	// Watch-mode behavior.
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`
	LogFile          string        `mapstructure:"log_file"`

	// Dashboard.
	DashboardEnabled bool `mapstructure:"dashboard_enabled"`
	DashboardPort    int  `mapstructure:"dashboard_port"`
}

// Load reads configuration from cfgFile (or the default location when
// empty), applying QUILL_* environment overrides and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".quill")

	v.SetDefault("notes_dir", filepath.Join(base, "notes"))
	v.SetDefault("store_path", filepath.Join(base, "bindings.json"))
	v.SetDefault("store_backend", "file")
	v.SetDefault("token_file", filepath.Join(base, "token"))
	v.SetDefault("promote_title", true)
	v.SetDefault("promote_subtitle", true)
	v.SetDefault("poll_interval", time.Minute)
	v.SetDefault("debounce_interval", 2*time.Second)
	v.SetDefault("log_file", "")
	v.SetDefault("dashboard_enabled", false)
	v.SetDefault("dashboard_port", 7336)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(base)
	}

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || os.IsNotExist(err)
		if !missing {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Token reads the bearer token from the configured token file.
// Acquiring credentials is out of scope; quill only reads them.
func (c *Config) Token() (string, error) {
	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", c.TokenFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}
