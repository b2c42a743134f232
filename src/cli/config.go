// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/logger"
)

// ConfigFileEnv names the environment variable holding the config path.
const ConfigFileEnv = "CT_VERIFIER_CONFIG_FILE"

// DistributorKeyEnv names the environment variable holding the path of the
// log list distributor key, used when the config names none.
const DistributorKeyEnv = "CT_VERIFIER_DISTRIBUTOR_KEY"

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config represents the CLI configuration structure.
//
// The configuration can be loaded from a JSON or YAML file given by the
// --config flag or the CT_VERIFIER_CONFIG_FILE environment variable, with
// defaults applied for any missing values.
// Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Verifier: Which hosts to check and what to trust
	Verifier struct {
		// Hosts: Patterns to check; empty means every host
		Hosts []string `json:"hosts,omitempty" yaml:"hosts,omitempty"`
		// ExcludeHosts: Patterns never checked
		ExcludeHosts []string `json:"excludeHosts,omitempty" yaml:"excludeHosts,omitempty"`
		// TrustAnchors: PEM bundle replacing the system roots
		TrustAnchors string `json:"trustAnchors,omitempty" yaml:"trustAnchors,omitempty"`
		// Timeout: Timeout in seconds for one verification or log call
		Timeout int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	} `json:"verifier" yaml:"verifier"`

	// LogList: Where the trusted log list comes from
	LogList struct {
		// URL: Distributor base URL
		URL string `json:"url,omitempty" yaml:"url,omitempty"`
		// DistributorKey: PEM public key file verifying the list
		DistributorKey string `json:"distributorKey,omitempty" yaml:"distributorKey,omitempty"`
		// CacheDir: Directory for the on-disk copy
		CacheDir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`
	} `json:"logList" yaml:"logList"`

	// Log: Structured log settings
	Log logger.Config `json:"log" yaml:"log"`
}

// detectConfigFormat determines the configuration file format based on file extension.
// The function uses case-insensitive extension matching for cross-platform compatibility.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// LoadConfig loads the configuration from a JSON or YAML file or applies defaults.
//
// Configuration Priority:
//  1. Default values are set
//  2. CT_VERIFIER_CONFIG_FILE environment variable is checked if configPath is empty
//  3. Config file values override defaults (if file exists and is valid)
//  4. Environment variables override config file values (CT_VERIFIER_DISTRIBUTOR_KEY)
//
// Command-line flags are applied on top by the caller.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.Verifier.Timeout = 30
	config.Log.Level = "warn"
	config.Log.Format = "json"

	// Check environment variable for config file path if not provided
	if configPath == "" {
		configPath = os.Getenv(ConfigFileEnv)
	}

	// Try to load from file if path is provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Detect format and unmarshal accordingly
		format := detectConfigFormat(configPath)
		if err := unmarshalConfig(data, config, format); err != nil {
			return nil, err
		}

		// Validate and set defaults for invalid values
		if config.Verifier.Timeout <= 0 {
			config.Verifier.Timeout = 30
		}
	}

	// Override distributor key from environment if not set in config
	if config.LogList.DistributorKey == "" {
		config.LogList.DistributorKey = os.Getenv(DistributorKeyEnv)
	}

	return config, nil
}
