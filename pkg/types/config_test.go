package types

import (
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("expected default log level %q, got %q", DefaultLogLevel, cfg.Logging.Level)
	}
	if cfg.Thermal.PollInterval != DefaultPollInterval {
		t.Errorf("expected default poll interval %q, got %q", DefaultPollInterval, cfg.Thermal.PollInterval)
	}
	if cfg.Thermal.Threshold != DefaultThermalThreshold {
		t.Errorf("expected default threshold %v, got %v", DefaultThermalThreshold, cfg.Thermal.Threshold)
	}
	if cfg.Metrics.Port != DefaultPrometheusPort {
		t.Errorf("expected default metrics port %d, got %d", DefaultPrometheusPort, cfg.Metrics.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Logging: LoggingConfig{Level: "debug"},
		Thermal: ThermalConfig{PollInterval: "5s", Threshold: 3.5},
	}
	cfg.ApplyDefaults()

	if cfg.Logging.Level != "debug" {
		t.Errorf("explicit log level overwritten: %q", cfg.Logging.Level)
	}
	if cfg.Thermal.PollInterval != "5s" {
		t.Errorf("explicit poll interval overwritten: %q", cfg.Thermal.PollInterval)
	}
	if cfg.Thermal.Threshold != 3.5 {
		t.Errorf("explicit threshold overwritten: %v", cfg.Thermal.Threshold)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "file output without path",
			mutate:  func(c *Config) { c.Logging.Output = "file" },
			wantErr: "logging.file must be set",
		},
		{
			name:    "unparseable interval",
			mutate:  func(c *Config) { c.Thermal.PollInterval = "two seconds" },
			wantErr: "invalid thermal.pollInterval",
		},
		{
			name:    "interval below minimum",
			mutate:  func(c *Config) { c.Thermal.PollInterval = "10ms" },
			wantErr: "below the minimum",
		},
		{
			name:    "negative threshold",
			mutate:  func(c *Config) { c.Thermal.Threshold = -1 },
			wantErr: "threshold must be positive",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "bad debounce",
			mutate:  func(c *Config) { c.Reload.DebounceInterval = "soon" },
			wantErr: "invalid reload.debounceInterval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestParsedPollInterval(t *testing.T) {
	tc := ThermalConfig{PollInterval: "2s"}
	d, err := tc.ParsedPollInterval()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
}
