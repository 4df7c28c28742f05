package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

const hostSensorReadTimeout = 10 * time.Second

// HostTemperatureOption reads a host thermal sensor through gopsutil.
// It matches sensor keys by substring so "coretemp" finds
// "coretemp_package_id_0" and friends; the first match wins.
type HostTemperatureOption struct {
	sensorKey string
}

// NewHostTemperatureOption creates an option bound to the named host
// sensor key (substring match, case-insensitive).
func NewHostTemperatureOption(sensorKey string) (*HostTemperatureOption, error) {
	if sensorKey == "" {
		return nil, fmt.Errorf("sensor key cannot be empty")
	}
	return &HostTemperatureOption{sensorKey: strings.ToLower(sensorKey)}, nil
}

// Query reads the bound sensor's current temperature in degrees Celsius.
func (o *HostTemperatureOption) Query() (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), hostSensorReadTimeout)
	defer cancel()

	readings, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read host temperature sensors: %w", err)
	}

	for _, r := range readings {
		if strings.Contains(strings.ToLower(r.SensorKey), o.sensorKey) {
			return r.Temperature, nil
		}
	}
	return 0, fmt.Errorf("no host temperature sensor matches %q", o.sensorKey)
}

// Description returns the option documentation.
func (o *HostTemperatureOption) Description() string {
	return fmt.Sprintf("host thermal sensor %q (deg C)", o.sensorKey)
}

// HostSensorAvailable reports whether any host sensor matches the key.
// The daemon uses it to fall back to a synthetic source on hosts without
// readable thermal sensors.
func HostSensorAvailable(sensorKey string) bool {
	opt, err := NewHostTemperatureOption(sensorKey)
	if err != nil {
		return false
	}
	_, err = opt.Query()
	return err == nil
}
