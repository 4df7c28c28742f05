// Package device provides concrete option and sensor implementations and
// a small device harness that owns the thermal compensation monitor.
package device

import (
	"fmt"
	"sync"
)

// FuncOption adapts a function into a queryable option.
type FuncOption struct {
	desc  string
	query func() (float64, error)
}

// NewFuncOption creates an option backed by the given query function.
func NewFuncOption(desc string, query func() (float64, error)) (*FuncOption, error) {
	if query == nil {
		return nil, fmt.Errorf("query function cannot be nil")
	}
	return &FuncOption{desc: desc, query: query}, nil
}

// Query invokes the backing function.
func (o *FuncOption) Query() (float64, error) { return o.query() }

// Description returns the option documentation.
func (o *FuncOption) Description() string { return o.desc }

// StaticOption is a settable in-memory option, used for firmware toggles
// and as a stand-in temperature source in tests and simulations.
type StaticOption struct {
	desc string

	mu    sync.Mutex
	value float64
}

// NewStaticOption creates a static option with an initial value.
func NewStaticOption(desc string, value float64) *StaticOption {
	return &StaticOption{desc: desc, value: value}
}

// Query returns the current value.
func (o *StaticOption) Query() (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value, nil
}

// Set updates the value.
func (o *StaticOption) Set(value float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = value
}

// Description returns the option documentation.
func (o *StaticOption) Description() string { return o.desc }
