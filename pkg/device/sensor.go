package device

import "sync"

// SyntheticSensor is a sensor with externally controlled open state. It
// plays the activation-sensor role for the thermal monitor: compensation
// may only start while the sensor is opened for streaming.
type SyntheticSensor struct {
	name string

	mu   sync.Mutex
	open bool
}

// NewSyntheticSensor creates a closed sensor.
func NewSyntheticSensor(name string) *SyntheticSensor {
	return &SyntheticSensor{name: name}
}

// Name returns the sensor name.
func (s *SyntheticSensor) Name() string { return s.name }

// Open marks the sensor as streaming.
func (s *SyntheticSensor) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
}

// CloseSensor marks the sensor as stopped.
func (s *SyntheticSensor) CloseSensor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// IsOpen reports whether the sensor is currently opened.
func (s *SyntheticSensor) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
