// Package registry provides an owning handle table for device options and
// sensors, and the weak references other components hold into it.
//
// Collaborators like the thermal monitor never own the options or sensors
// they consume; they hold an OptionRef or SensorRef and resolve it on every
// use. A referent removed from the registry (device unplugged, sensor torn
// down) makes subsequent resolutions report absence instead of dangling.
package registry

import (
	"sync"

	"github.com/mattiasbax/librealsense/pkg/types"
)

// Registry is a thread-safe table of live options and sensors. The zero
// value is not usable; create instances with New.
type Registry struct {
	mu      sync.RWMutex
	options map[string]types.Option
	sensors map[string]types.Sensor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		options: make(map[string]types.Option),
		sensors: make(map[string]types.Sensor),
	}
}

// AddOption registers an option under id, replacing any previous entry,
// and returns a weak reference to it.
func (r *Registry) AddOption(id string, opt types.Option) OptionRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[id] = opt
	return OptionRef{reg: r, id: id}
}

// RemoveOption drops the option registered under id. Outstanding refs
// resolve to absent afterwards.
func (r *Registry) RemoveOption(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.options, id)
}

// OptionRef returns a weak reference to the option registered under id.
// The option does not need to exist yet; resolution is per use.
func (r *Registry) OptionRef(id string) OptionRef {
	return OptionRef{reg: r, id: id}
}

// AddSensor registers a sensor under id and returns a weak reference.
func (r *Registry) AddSensor(id string, snr types.Sensor) SensorRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensors[id] = snr
	return SensorRef{reg: r, id: id}
}

// RemoveSensor drops the sensor registered under id.
func (r *Registry) RemoveSensor(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sensors, id)
}

// SensorRef returns a weak reference to the sensor registered under id.
func (r *Registry) SensorRef(id string) SensorRef {
	return SensorRef{reg: r, id: id}
}

func (r *Registry) lookupOption(id string) (types.Option, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	opt, ok := r.options[id]
	return opt, ok
}

func (r *Registry) lookupSensor(id string) (types.Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snr, ok := r.sensors[id]
	return snr, ok
}

// OptionRef is a weak reference to a registered option. The zero value
// resolves to absent. Refs are cheap value types safe to copy.
type OptionRef struct {
	reg *Registry
	id  string
}

// Resolve returns the referenced option, or false if the referent is gone
// (or the ref is the zero value).
func (ref OptionRef) Resolve() (types.Option, bool) {
	if ref.reg == nil {
		return nil, false
	}
	return ref.reg.lookupOption(ref.id)
}

// SensorRef is a weak reference to a registered sensor. The zero value
// resolves to absent.
type SensorRef struct {
	reg *Registry
	id  string
}

// Resolve returns the referenced sensor, or false if the referent is gone.
func (ref SensorRef) Resolve() (types.Sensor, bool) {
	if ref.reg == nil {
		return nil, false
	}
	return ref.reg.lookupSensor(ref.id)
}
