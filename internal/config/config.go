// Package config handles configuration loading and management for Tailfin.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Tailfin.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Google    GoogleConfig    `mapstructure:"google"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// Bedrock routes requests through AWS Bedrock instead of the
	// direct Anthropic API.
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GoogleConfig holds the Gmail/Calendar OAuth file locations.
type GoogleConfig struct {
	// ClientSecretPath is the OAuth client secret JSON downloaded from
	// the Google Cloud console.
	ClientSecretPath string `mapstructure:"client_secret"`
	// TokenPath is where the granted OAuth token is stored.
	TokenPath string `mapstructure:"token"`
}

// ScanConfig holds scan cycle settings.
type ScanConfig struct {
	// Interval is how often the daemon kicks off a scan cycle.
	Interval time.Duration `mapstructure:"interval"`
	// EmailLimit caps how many inbox messages a fetch step pulls.
	EmailLimit int `mapstructure:"email_limit"`
	// CalendarLimit caps how many upcoming events a fetch step pulls.
	CalendarLimit int `mapstructure:"calendar_limit"`
}

// AgentsConfig holds agent preset settings.
type AgentsConfig struct {
	// PresetsPath optionally points at a YAML file of agent presets.
	// When set, the daemon watches it and reloads on change.
	PresetsPath string `mapstructure:"presets"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	// Enabled turns on the file-backed debug log.
	Enabled bool `mapstructure:"enabled"`
	// LogPath overrides the default debug log location.
	LogPath string `mapstructure:"log_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.tailfin.yaml in current directory or parent)
// 3. User config (~/.config/tailfin/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "TAILFIN_MODEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.Google.ClientSecretPath = expandPath(cfg.Google.ClientSecretPath)
	cfg.Google.TokenPath = expandPath(cfg.Google.TokenPath)
	cfg.Agents.PresetsPath = expandPath(cfg.Agents.PresetsPath)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.bedrock", cfg.Anthropic.Bedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("google.client_secret", cfg.Google.ClientSecretPath)
	v.Set("google.token", cfg.Google.TokenPath)
	v.Set("scan.interval", cfg.Scan.Interval.String())
	v.Set("scan.email_limit", cfg.Scan.EmailLimit)
	v.Set("scan.calendar_limit", cfg.Scan.CalendarLimit)
	v.Set("agents.presets", cfg.Agents.PresetsPath)
	v.Set("debug.enabled", cfg.Debug.Enabled)
	v.Set("debug.log_path", cfg.Debug.LogPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.bedrock", false)

	v.SetDefault("google.client_secret", filepath.Join(getUserConfigDir(), "client_secret.json"))
	v.SetDefault("google.token", filepath.Join(getUserConfigDir(), "token.json"))

	v.SetDefault("scan.interval", "5m")
	v.SetDefault("scan.email_limit", 10)
	v.SetDefault("scan.calendar_limit", 5)

	v.SetDefault("agents.presets", "")

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.log_path", "")
}

// getUserConfigDir returns the XDG config directory for Tailfin.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tailfin")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tailfin")
	}
	return filepath.Join(home, ".config", "tailfin")
}

// findProjectConfig searches for .tailfin.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tailfin.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandPath expands env references and a leading ~ in a path.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// Default returns a Config with default values.
func Default() *Config {
	dir := getUserConfigDir()
	return &Config{
		Google: GoogleConfig{
			ClientSecretPath: filepath.Join(dir, "client_secret.json"),
			TokenPath:        filepath.Join(dir, "token.json"),
		},
		Scan: ScanConfig{
			Interval:      5 * time.Minute,
			EmailLimit:    10,
			CalendarLimit: 5,
		},
	}
}
