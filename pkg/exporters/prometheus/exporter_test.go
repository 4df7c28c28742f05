package prometheus

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mattiasbax/librealsense/pkg/types"
)

func testConfig(port int) types.MetricsConfig {
	return types.MetricsConfig{
		Enabled:   true,
		Port:      port,
		Path:      "/metrics",
		Namespace: "librealsense",
	}
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(types.MetricsConfig{Enabled: false}); err == nil {
		t.Error("expected error for disabled exporter")
	}
	if _, err := New(types.MetricsConfig{Enabled: true, Port: 0}); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestMetricsHookCounters(t *testing.T) {
	e, err := New(testConfig(9101))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.TickCompleted()
	e.TickCompleted()
	e.TickSkipped("feature_off")
	e.TickSkipped("feature_off")
	e.TickSkipped("toggle_absent")
	e.NotificationFired(33.5)

	if got := testutil.ToFloat64(e.ticksTotal); got != 2 {
		t.Errorf("expected 2 completed ticks, got %v", got)
	}
	if got := testutil.ToFloat64(e.skippedTotal.WithLabelValues("feature_off")); got != 2 {
		t.Errorf("expected 2 feature_off skips, got %v", got)
	}
	if got := testutil.ToFloat64(e.skippedTotal.WithLabelValues("toggle_absent")); got != 1 {
		t.Errorf("expected 1 toggle_absent skip, got %v", got)
	}
	if got := testutil.ToFloat64(e.notificationsTotal); got != 1 {
		t.Errorf("expected 1 notification, got %v", got)
	}
	if got := testutil.ToFloat64(e.lastTemperature); got != 33.5 {
		t.Errorf("expected last temperature 33.5, got %v", got)
	}
}

func TestServeMetricsEndpoint(t *testing.T) {
	port := freePort(t)
	e, err := New(testConfig(port))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		e.Stop(ctx)
	}()

	if err := e.Start(); err == nil {
		t.Error("expected error on double start")
	}

	e.NotificationFired(31.0)

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	var body string
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil && resp.StatusCode == http.StatusOK {
				body = string(data)
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics endpoint never became ready: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	for _, metric := range []string{
		"librealsense_thermal_ticks_total",
		"librealsense_thermal_notifications_total",
		"librealsense_thermal_last_notified_temperature_celsius 31",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	e, err := New(testConfig(9101))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Stop(context.Background()); err != nil {
		t.Errorf("stop without start should be a no-op, got %v", err)
	}
}
