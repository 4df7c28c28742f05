// Package types also defines the daemon configuration model.
package types

import (
	"fmt"
	"time"
)

// Package-level defaults
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stdout"

	DefaultPollInterval     = "2s"
	DefaultThermalThreshold = 2.0
	DefaultSensorName       = "coretemp"

	DefaultPrometheusPort = 9101
	DefaultPrometheusPath = "/metrics"
	DefaultPrometheusNS   = "librealsense"

	DefaultReloadDebounce = "500ms"
)

// MinPollInterval is the smallest accepted polling interval; anything
// faster just burns cycles re-reading a slow-moving temperature.
const MinPollInterval = 100 * time.Millisecond

var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}
)

// Config is the top-level daemon configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Thermal ThermalConfig `yaml:"thermal" json:"thermal"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Reload  ReloadConfig  `yaml:"reload" json:"reload"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ThermalConfig controls the thermal compensation monitor.
type ThermalConfig struct {
	// Enabled drives monitor activation; flipping it at runtime (via config
	// reload) maps to Update(enabled) on the monitor.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// PollInterval is how often the temperature is sampled, e.g. "2s".
	PollInterval string `yaml:"pollInterval" json:"pollInterval"`

	// Threshold is the temperature delta (deg C) that triggers
	// recalibration notifications.
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// Sensor selects the host thermal sensor used as the temperature
	// source when no device-specific option is wired in.
	Sensor string `yaml:"sensor" json:"sensor"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Port      int    `yaml:"port" json:"port"`
	Path      string `yaml:"path" json:"path"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// ReloadConfig controls configuration hot reload.
type ReloadConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	DebounceInterval string `yaml:"debounceInterval" json:"debounceInterval"`
}

// ApplyDefaults fills in zero-valued fields with package defaults.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
	if c.Thermal.PollInterval == "" {
		c.Thermal.PollInterval = DefaultPollInterval
	}
	if c.Thermal.Threshold == 0 {
		c.Thermal.Threshold = DefaultThermalThreshold
	}
	if c.Thermal.Sensor == "" {
		c.Thermal.Sensor = DefaultSensorName
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultPrometheusPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultPrometheusPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultPrometheusNS
	}
	if c.Reload.DebounceInterval == "" {
		c.Reload.DebounceInterval = DefaultReloadDebounce
	}
}

// Validate checks the configuration for errors. It assumes defaults have
// already been applied.
func (c *Config) Validate() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q: must be json or text", c.Logging.Format)
	}
	if !validLogOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", c.Logging.Output)
	}
	if c.Logging.Output == "file" && c.Logging.File == "" {
		return fmt.Errorf("logging.file must be set when logging.output is 'file'")
	}

	interval, err := c.Thermal.ParsedPollInterval()
	if err != nil {
		return err
	}
	if interval < MinPollInterval {
		return fmt.Errorf("thermal.pollInterval %v is below the minimum %v", interval, MinPollInterval)
	}
	if c.Thermal.Threshold <= 0 {
		return fmt.Errorf("thermal.threshold must be positive, got %v", c.Thermal.Threshold)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port %d is out of range", c.Metrics.Port)
	}

	if _, err := c.Reload.ParsedDebounceInterval(); err != nil {
		return err
	}

	return nil
}

// ParsedPollInterval returns the poll interval as a duration.
func (t *ThermalConfig) ParsedPollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(t.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid thermal.pollInterval %q: %w", t.PollInterval, err)
	}
	return d, nil
}

// ParsedDebounceInterval returns the reload debounce as a duration.
func (r *ReloadConfig) ParsedDebounceInterval() (time.Duration, error) {
	d, err := time.ParseDuration(r.DebounceInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid reload.debounceInterval %q: %w", r.DebounceInterval, err)
	}
	return d, nil
}
