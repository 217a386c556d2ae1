package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Tailfin configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/tailfin/config.yaml
Project-specific overrides can be placed in .tailfin.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model, "(sdk default)"))
	fmt.Printf("anthropic.bedrock: %t\n", cfg.Anthropic.Bedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orDefault(cfg.Anthropic.AWSRegion, "(not set)"))
	fmt.Printf("anthropic.aws_profile: %s\n", orDefault(cfg.Anthropic.AWSProfile, "(not set)"))
	fmt.Printf("google.client_secret: %s\n", cfg.Google.ClientSecretPath)
	fmt.Printf("google.token: %s\n", cfg.Google.TokenPath)
	fmt.Printf("scan.interval: %s\n", cfg.Scan.Interval)
	fmt.Printf("scan.email_limit: %d\n", cfg.Scan.EmailLimit)
	fmt.Printf("scan.calendar_limit: %d\n", cfg.Scan.CalendarLimit)
	fmt.Printf("agents.presets: %s\n", orDefault(cfg.Agents.PresetsPath, "(not set)"))
	fmt.Printf("debug.enabled: %t\n", cfg.Debug.Enabled)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.bedrock":
		return strconv.FormatBool(cfg.Anthropic.Bedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "google.client_secret":
		return cfg.Google.ClientSecretPath, nil
	case "google.token":
		return cfg.Google.TokenPath, nil
	case "scan.interval":
		return cfg.Scan.Interval.String(), nil
	case "scan.email_limit":
		return strconv.Itoa(cfg.Scan.EmailLimit), nil
	case "scan.calendar_limit":
		return strconv.Itoa(cfg.Scan.CalendarLimit), nil
	case "agents.presets":
		return cfg.Agents.PresetsPath, nil
	case "debug.enabled":
		return strconv.FormatBool(cfg.Debug.Enabled), nil
	case "debug.log_path":
		return cfg.Debug.LogPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for anthropic.bedrock: %w", err)
		}
		cfg.Anthropic.Bedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "google.client_secret":
		cfg.Google.ClientSecretPath = value
	case "google.token":
		cfg.Google.TokenPath = value
	case "scan.interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for scan.interval: %w", err)
		}
		cfg.Scan.Interval = d
	case "scan.email_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for scan.email_limit: %w", err)
		}
		cfg.Scan.EmailLimit = n
	case "scan.calendar_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for scan.calendar_limit: %w", err)
		}
		cfg.Scan.CalendarLimit = n
	case "agents.presets":
		cfg.Agents.PresetsPath = value
	case "debug.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for debug.enabled: %w", err)
		}
		cfg.Debug.Enabled = b
	case "debug.log_path":
		cfg.Debug.LogPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
