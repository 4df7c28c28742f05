// Package prometheus exports thermal monitor metrics over HTTP.
// The exporter implements the thermal.Metrics hook so the monitor can
// record tick outcomes without knowing about Prometheus.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mattiasbax/librealsense/pkg/logger"
	"github.com/mattiasbax/librealsense/pkg/types"
)

// Exporter serves thermal monitor metrics on a dedicated HTTP listener.
type Exporter struct {
	config   types.MetricsConfig
	registry *prometheus.Registry

	ticksTotal         prometheus.Counter
	skippedTotal       *prometheus.CounterVec
	notificationsTotal prometheus.Counter
	lastTemperature    prometheus.Gauge

	mu      sync.Mutex
	server  *http.Server
	started bool
}

// New creates an exporter from the metrics configuration. Defaults are
// expected to have been applied already.
func New(cfg types.MetricsConfig) (*Exporter, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("prometheus exporter is disabled")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid metrics port %d", cfg.Port)
	}

	ns := cfg.Namespace

	e := &Exporter{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "thermal",
			Name:      "ticks_total",
			Help:      "Number of poll ticks that reached the temperature comparison.",
		}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "thermal",
			Name:      "ticks_skipped_total",
			Help:      "Number of poll ticks abandoned before comparison, by reason.",
		}, []string{"reason"}),
		notificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "thermal",
			Name:      "notifications_total",
			Help:      "Number of temperature-change notifications dispatched.",
		}),
		lastTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "thermal",
			Name:      "last_notified_temperature_celsius",
			Help:      "Temperature carried by the most recent notification.",
		}),
	}

	for _, c := range []prometheus.Collector{
		e.ticksTotal,
		e.skippedTotal,
		e.notificationsTotal,
		e.lastTemperature,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := e.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return e, nil
}

// TickCompleted implements thermal.Metrics.
func (e *Exporter) TickCompleted() {
	e.ticksTotal.Inc()
}

// TickSkipped implements thermal.Metrics.
func (e *Exporter) TickSkipped(reason string) {
	e.skippedTotal.WithLabelValues(reason).Inc()
}

// NotificationFired implements thermal.Metrics.
func (e *Exporter) NotificationFired(temperature float64) {
	e.notificationsTotal.Inc()
	e.lastTemperature.Set(temperature)
}

// Start begins serving the metrics endpoint. The listener runs until
// Stop is called.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("prometheus exporter already started")
	}

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	e.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", e.config.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("prometheus exporter listener failed: %v", err)
		}
	}()

	e.started = true
	logger.Infof("prometheus exporter listening on :%d%s", e.config.Port, e.config.Path)
	return nil
}

// Stop shuts the metrics listener down gracefully.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}
	e.started = false
	return e.server.Shutdown(ctx)
}
