// Package util provides configuration loading helpers.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mattiasbax/librealsense/pkg/types"
)

// LoadConfig loads configuration from a YAML or JSON file, chosen by
// extension. Environment variables are expanded before parsing, then
// defaults are applied and the result validated.
func LoadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand before parsing so env vars work in non-string fields too.
	data = []byte(os.ExpandEnv(string(data)))

	var config types.Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads the config file, or returns the default
// configuration when the file does not exist.
func LoadConfigOrDefault(path string) (*types.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns the built-in default configuration with thermal
// compensation enabled.
func DefaultConfig() *types.Config {
	config := &types.Config{
		Thermal: types.ThermalConfig{Enabled: true},
	}
	config.ApplyDefaults()
	return config
}
