// Package types defines the core capability interfaces shared by the
// thermal compensation stack. Collaborators (options, sensors) are owned
// elsewhere; consumers hold weak references and resolve them per use.
package types

// Option is a queryable device control. A query returns the current value
// of the control and is expected to be cheap and side-effect free.
type Option interface {
	// Query reads the current value of the option.
	Query() (float64, error)

	// Description returns human-readable documentation for the option.
	Description() string
}

// Sensor is the minimal view of a streaming sensor that activation logic
// needs: whether the sensor has been opened for streaming.
type Sensor interface {
	// IsOpen reports whether the sensor is currently opened.
	IsOpen() bool
}

// ThermalCallback receives temperature-change notifications from the
// thermal compensation monitor. A temperature of 0 is the reset signal
// emitted when compensation is switched off.
type ThermalCallback func(temperature float64)
