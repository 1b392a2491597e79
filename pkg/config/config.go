// Package config provides configuration loading and management for spec2nii.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Conversion parameters applied when the source format carries no
	// header of its own
	Conversion struct {
		// Nucleus is the resonant nucleus label assumed for header-less
		// formats
		Nucleus string `yaml:"nucleus"`

		// FrequencyMHz is the spectrometer frequency assumed for plain
		// text input
		FrequencyMHz float64 `yaml:"frequencyMHz"`

		// Bandwidth is the acquisition bandwidth in Hz assumed for plain
		// text input
		Bandwidth float64 `yaml:"bandwidth"`
	} `yaml:"conversion"`

	// Overrides holds default dimension overrides applied to every
	// conversion unless given on the command line
	Overrides struct {
		// Dims holds up to three positional axis-name overrides
		Dims []string `yaml:"dims"`

		// Tags holds up to three positional tag-string overrides
		Tags []string `yaml:"tags"`
	} `yaml:"overrides"`

	// Output parameters
	Output struct {
		// Dir is the directory output containers are written into
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Proton spectroscopy is the overwhelmingly common case
	cfg.Conversion.Nucleus = "1H"

	cfg.Output.Dir = "."
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if len(cfg.Overrides.Dims) > 3 || len(cfg.Overrides.Tags) > 3 {
		return nil, fmt.Errorf("at most three dimension overrides are supported")
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
