// Package thermal implements the thermal compensation monitor: a periodic
// worker that tracks a device temperature option against a remembered
// baseline and notifies subscribers when the drift crosses a threshold,
// gated by a firmware-level feature toggle.
package thermal

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mattiasbax/librealsense/pkg/logger"
	"github.com/mattiasbax/librealsense/pkg/registry"
	"github.com/mattiasbax/librealsense/pkg/types"
	"github.com/mattiasbax/librealsense/pkg/worker"
)

const (
	// DefaultPollInterval is the temperature check period.
	DefaultPollInterval = 2 * time.Second

	// DefaultThreshold is the temperature delta (deg C) that triggers a
	// recalibration notification.
	DefaultThreshold = 2.0

	// featureEpsilon matches the single-precision epsilon the firmware
	// uses for its toggle value; a magnitude below it means disabled.
	featureEpsilon = 1.19209290e-07
)

// Skip reasons reported to the metrics hook.
const (
	SkipToggleAbsent      = "toggle_absent"
	SkipFeatureOff        = "feature_off"
	SkipTemperatureAbsent = "temperature_absent"
	SkipQueryError        = "query_error"
)

// Metrics is an optional observability hook. Implementations must be
// safe for use from the monitor goroutine.
type Metrics interface {
	// TickCompleted records a tick that ran to the comparison step.
	TickCompleted()

	// TickSkipped records a tick abandoned before comparison.
	TickSkipped(reason string)

	// NotificationFired records a dispatched temperature notification.
	NotificationFired(temperature float64)
}

// Config carries the construction parameters for a Monitor. Temperature,
// Toggle and Sensor are weak references; the monitor re-resolves them on
// every use and never extends the referents' lifetime.
type Config struct {
	// PollInterval between temperature checks. Defaults to
	// DefaultPollInterval. Immutable after construction.
	PollInterval time.Duration

	// Threshold in degrees that qualifies a change. Defaults to
	// DefaultThreshold. Immutable after construction.
	Threshold float64

	// Temperature is the option reporting the current temperature.
	Temperature registry.OptionRef

	// Toggle is the firmware feature toggle; a value within epsilon of
	// zero disables the compensation logic for the tick.
	Toggle registry.OptionRef

	// Sensor is the activation sensor whose open state gates Update(true).
	Sensor registry.SensorRef

	// Callbacks receive temperature notifications in registration order.
	// The list is fixed for the monitor's lifetime.
	Callbacks []types.ThermalCallback
}

// Monitor polls the temperature option and notifies its callbacks when
// the reading drifts at least Threshold degrees from the baseline.
// Start, Stop, Update and IsActive are safe for concurrent use.
type Monitor struct {
	worker    *worker.Worker
	threshold float64

	temperature registry.OptionRef
	toggle      registry.OptionRef
	sensor      registry.SensorRef
	callbacks   []types.ThermalCallback

	// ctlMu serializes Update's check-then-act against concurrent
	// Update calls. Callbacks must not call back into Update.
	ctlMu sync.Mutex

	// mu guards the baseline.
	mu       sync.Mutex
	baseline float64

	logMu sync.RWMutex
	log   logger.Logger

	metricsMu sync.RWMutex
	metrics   Metrics
}

// NewMonitor creates a stopped monitor. The callback slice is copied;
// later mutation of the caller's slice has no effect.
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", cfg.PollInterval)
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", cfg.Threshold)
	}

	m := &Monitor{
		threshold:   cfg.Threshold,
		temperature: cfg.Temperature,
		toggle:      cfg.Toggle,
		sensor:      cfg.Sensor,
		callbacks:   append([]types.ThermalCallback(nil), cfg.Callbacks...),
	}

	w, err := worker.New(cfg.PollInterval, m.tick)
	if err != nil {
		return nil, err
	}
	m.worker = w
	return m, nil
}

// SetLogger sets an optional logger for the monitor and its worker.
func (m *Monitor) SetLogger(l logger.Logger) {
	m.logMu.Lock()
	m.log = l
	m.logMu.Unlock()
	m.worker.SetLogger(l)
}

// SetMetrics sets an optional metrics hook.
func (m *Monitor) SetMetrics(mx Metrics) {
	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	m.metrics = mx
}

// IsActive reports whether the polling worker is running.
func (m *Monitor) IsActive() bool {
	return m.worker.IsActive()
}

// Baseline returns the current comparison point. It is 0 whenever the
// monitor is stopped.
func (m *Monitor) Baseline() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline
}

// Start activates the polling worker. Idempotent.
func (m *Monitor) Start() {
	m.worker.Start()
}

// Stop deactivates the polling worker and resets the baseline to 0.
// Idempotent; blocks until the worker has fully exited. Must not be
// called from a callback.
func (m *Monitor) Stop() {
	m.worker.Stop()

	m.mu.Lock()
	m.baseline = 0
	m.mu.Unlock()
}

// Update synchronizes monitor activation with the external feature
// signal. Turning the feature off stops the monitor and emits a single
// reset notification with temperature 0. Turning it on starts polling
// only if the activation sensor resolves and reports itself open; there
// is no retry otherwise, the caller re-invokes Update once the sensor
// opens. If the activation sensor cannot be resolved at all, Update has
// no effect in either direction.
func (m *Monitor) Update(enabled bool) {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()

	if enabled == m.worker.IsActive() {
		return
	}

	snr, ok := m.sensor.Resolve()
	if !ok {
		return
	}

	if !enabled {
		m.Stop()
		m.notify(0)
		return
	}

	if snr.IsOpen() {
		m.Start()
	}
}

// Close stops the monitor. It implements io.Closer so owners can release
// the worker on all exit paths.
func (m *Monitor) Close() error {
	m.Stop()
	return nil
}

// tick runs once per completed poll interval on the worker goroutine.
// Failures never propagate: query errors and panics are logged at the
// tick boundary and the next interval proceeds unaffected.
func (m *Monitor) tick(_ *worker.CancellableTimer) {
	defer func() {
		if r := recover(); r != nil {
			m.errorf("Unresolved error during thermal compensation handling: %v", r)
			m.observeSkip(SkipQueryError)
		}
	}()

	// Verify the toggle is active on firmware level. An unresolvable
	// toggle counts as disabled-by-absence.
	toggle, ok := m.toggle.Resolve()
	if !ok {
		m.observeSkip(SkipToggleAbsent)
		return
	}
	active, err := toggle.Query()
	if err != nil {
		m.errorf("Error during thermal compensation handling: %v", err)
		m.observeSkip(SkipQueryError)
		return
	}
	if math.Abs(active) < featureEpsilon {
		m.observeSkip(SkipFeatureOff)
		return
	}

	temp, ok := m.temperature.Resolve()
	if !ok {
		m.errorf("Thermal compensation: temperature sensor option is not present")
		m.observeSkip(SkipTemperatureAbsent)
		return
	}
	current, err := temp.Query()
	if err != nil {
		m.errorf("Error during thermal compensation handling: %v", err)
		m.observeSkip(SkipQueryError)
		return
	}

	m.mu.Lock()
	base := m.baseline
	qualifies := math.Abs(base-current) >= m.threshold
	if qualifies {
		m.baseline = current
	}
	m.mu.Unlock()

	m.observeTick()
	if qualifies {
		m.debugf("Thermal calibration adjustment is triggered on change from %.1f to %.1f deg (C)", base, current)
		m.notify(current)
		m.observeNotification(current)
	}
}

// notify invokes every callback in registration order with the given
// temperature. Callback panics surface to the tick's recovery sweep.
func (m *Monitor) notify(temperature float64) {
	for _, cb := range m.callbacks {
		cb(temperature)
	}
}

func (m *Monitor) observeTick() {
	m.metricsMu.RLock()
	mx := m.metrics
	m.metricsMu.RUnlock()
	if mx != nil {
		mx.TickCompleted()
	}
}

func (m *Monitor) observeSkip(reason string) {
	m.metricsMu.RLock()
	mx := m.metrics
	m.metricsMu.RUnlock()
	if mx != nil {
		mx.TickSkipped(reason)
	}
}

func (m *Monitor) observeNotification(temperature float64) {
	m.metricsMu.RLock()
	mx := m.metrics
	m.metricsMu.RUnlock()
	if mx != nil {
		mx.NotificationFired(temperature)
	}
}

func (m *Monitor) debugf(format string, args ...interface{}) {
	m.logMu.RLock()
	l := m.log
	m.logMu.RUnlock()
	if l != nil {
		l.Debugf(format, args...)
	}
}

func (m *Monitor) errorf(format string, args ...interface{}) {
	m.logMu.RLock()
	l := m.log
	m.logMu.RUnlock()
	if l != nil {
		l.Errorf(format, args...)
	}
}
