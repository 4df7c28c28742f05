package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattiasbax/librealsense/pkg/logger"
	"github.com/mattiasbax/librealsense/pkg/registry"
	"github.com/mattiasbax/librealsense/pkg/thermal"
	"github.com/mattiasbax/librealsense/pkg/types"
)

// Well-known registry ids for the thermal collaborators.
const (
	TemperatureOptionID = "asic-temperature"
	ToggleOptionID      = "thermal-compensation"
	DepthSensorID       = "depth"
)

// Config carries construction parameters for a Device.
type Config struct {
	// Name identifies the device in logs.
	Name string

	// Temperature is the temperature source option. Required.
	Temperature types.Option

	// PollInterval and Threshold are passed through to the thermal
	// monitor; zero values select the monitor defaults.
	PollInterval time.Duration
	Threshold    float64

	// Callbacks receive thermal notifications, in order.
	Callbacks []types.ThermalCallback
}

// Device owns the option registry, the depth sensor and the thermal
// compensation monitor, and ties monitor activation to the sensor's
// streaming lifecycle.
type Device struct {
	name    string
	reg     *registry.Registry
	sensor  *SyntheticSensor
	toggle  *StaticOption
	monitor *thermal.Monitor

	mu     sync.Mutex
	open   bool
	closed bool
}

// New creates a device with a closed depth sensor and a stopped thermal
// monitor. The firmware toggle starts enabled.
func New(cfg Config) (*Device, error) {
	if cfg.Temperature == nil {
		return nil, fmt.Errorf("temperature option is required")
	}
	if cfg.Name == "" {
		cfg.Name = "librealsense-device"
	}

	reg := registry.New()
	sensor := NewSyntheticSensor(DepthSensorID)
	toggle := NewStaticOption("thermal compensation firmware toggle", 1)

	tempRef := reg.AddOption(TemperatureOptionID, cfg.Temperature)
	toggleRef := reg.AddOption(ToggleOptionID, toggle)
	sensorRef := reg.AddSensor(DepthSensorID, sensor)

	monitor, err := thermal.NewMonitor(thermal.Config{
		PollInterval: cfg.PollInterval,
		Threshold:    cfg.Threshold,
		Temperature:  tempRef,
		Toggle:       toggleRef,
		Sensor:       sensorRef,
		Callbacks:    cfg.Callbacks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create thermal monitor: %w", err)
	}
	monitor.SetLogger(logger.ForComponent("thermal-monitor"))

	return &Device{
		name:    cfg.Name,
		reg:     reg,
		sensor:  sensor,
		toggle:  toggle,
		monitor: monitor,
	}, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Monitor returns the device's thermal monitor.
func (d *Device) Monitor() *thermal.Monitor { return d.monitor }

// Registry returns the device's option registry.
func (d *Device) Registry() *registry.Registry { return d.reg }

// SetToggle flips the firmware-level compensation toggle.
func (d *Device) SetToggle(enabled bool) {
	if enabled {
		d.toggle.Set(1)
	} else {
		d.toggle.Set(0)
	}
}

// Open starts the depth sensor streaming and activates thermal
// compensation. Idempotent.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("device %s is closed", d.name)
	}
	if d.open {
		return nil
	}

	d.sensor.Open()
	d.monitor.Update(true)
	d.open = true

	logger.Infof("device %s opened, thermal compensation active: %v", d.name, d.monitor.IsActive())
	return nil
}

// Stop halts streaming and compensation but keeps the device usable.
// Idempotent.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Device) stopLocked() {
	if !d.open {
		return
	}

	d.monitor.Update(false)
	d.sensor.CloseSensor()
	d.open = false

	logger.Infof("device %s stopped", d.name)
}

// Close releases the device: compensation is switched off (emitting the
// reset notification), the monitor's worker is joined, and the thermal
// collaborators are removed from the registry so outstanding weak
// references report absence. Idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	d.stopLocked()
	if err := d.monitor.Close(); err != nil {
		return err
	}

	d.reg.RemoveOption(TemperatureOptionID)
	d.reg.RemoveOption(ToggleOptionID)
	d.reg.RemoveSensor(DepthSensorID)
	d.closed = true

	logger.Infof("device %s closed", d.name)
	return nil
}
