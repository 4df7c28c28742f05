// thermald - thermal compensation monitor daemon
//
// Polls a host (or simulated) temperature source and notifies when the
// reading drifts beyond the configured threshold, exporting tick metrics
// over Prometheus and following configuration file changes at runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattiasbax/librealsense/pkg/device"
	"github.com/mattiasbax/librealsense/pkg/exporters/prometheus"
	"github.com/mattiasbax/librealsense/pkg/logger"
	"github.com/mattiasbax/librealsense/pkg/reload"
	"github.com/mattiasbax/librealsense/pkg/types"
	"github.com/mattiasbax/librealsense/pkg/util"
)

// Build-time variables set by the release pipeline
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configPath = flag.String("config", "/etc/thermald/config.yaml", "Path to configuration file")
	logLevel   = flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	simulate   = flag.Bool("simulate", false, "Use a simulated temperature source instead of host sensors")
	version    = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("thermald %s (commit %s)\n", Version, GitCommit)
		os.Exit(0)
	}

	config, err := util.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		config.Logging.Level = *logLevel
	}

	if err := setupLogging(config.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Infof("thermald %s starting, config %s", Version, *configPath)

	if err := run(config); err != nil {
		logger.Fatalf("%v", err)
	}
}

func setupLogging(cfg types.LoggingConfig) error {
	return logger.Initialize(cfg.Level, cfg.Format, cfg.Output, cfg.File)
}

func run(config *types.Config) error {
	dev, err := buildDevice(config)
	if err != nil {
		return fmt.Errorf("failed to build device: %w", err)
	}
	defer dev.Close()

	var exporter *prometheus.Exporter
	if config.Metrics.Enabled {
		exporter, err = prometheus.New(config.Metrics)
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		dev.Monitor().SetMetrics(exporter)
		if err := exporter.Start(); err != nil {
			return fmt.Errorf("failed to start prometheus exporter: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			exporter.Stop(ctx)
		}()
	}

	if err := dev.Open(); err != nil {
		return err
	}
	dev.Monitor().Update(config.Thermal.Enabled)

	var changeCh <-chan struct{}
	if config.Reload.Enabled {
		debounce, err := config.Reload.ParsedDebounceInterval()
		if err != nil {
			return err
		}
		watcher, err := reload.NewWatcher(*configPath, debounce)
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		changeCh, err = watcher.Start()
		if err != nil {
			return fmt.Errorf("failed to start config watcher: %w", err)
		}
		defer watcher.Stop()
		logger.Infof("watching %s for configuration changes", *configPath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	logger.Infof("thermald started, compensation active: %v", dev.Monitor().IsActive())

	for {
		select {
		case sig := <-sigCh:
			logger.Infof("received %v, shutting down", sig)
			return nil

		case _, ok := <-changeCh:
			if !ok {
				changeCh = nil
				continue
			}
			handleReload(dev)
		}
	}
}

// handleReload re-reads the configuration and applies the hot-reloadable
// parts: log level/format and the thermal enabled flag. Poll interval and
// threshold are fixed at construction; changing them needs a restart.
func handleReload(dev *device.Device) {
	config, err := util.LoadConfig(*configPath)
	if err != nil {
		logger.Errorf("ignoring config reload: %v", err)
		return
	}

	if err := setupLogging(config.Logging); err != nil {
		logger.Errorf("ignoring logging config change: %v", err)
	}

	dev.Monitor().Update(config.Thermal.Enabled)
	logger.Infof("configuration reloaded, compensation active: %v", dev.Monitor().IsActive())
}

func buildDevice(config *types.Config) (*device.Device, error) {
	interval, err := config.Thermal.ParsedPollInterval()
	if err != nil {
		return nil, err
	}

	temp, err := temperatureSource(config.Thermal)
	if err != nil {
		return nil, err
	}

	return device.New(device.Config{
		Name:         "thermald",
		Temperature:  temp,
		PollInterval: interval,
		Threshold:    config.Thermal.Threshold,
		Callbacks: []types.ThermalCallback{
			func(temperature float64) {
				logger.WithField("temperature", temperature).
					Info("thermal compensation recalibration")
			},
		},
	})
}

func temperatureSource(cfg types.ThermalConfig) (types.Option, error) {
	if !*simulate && device.HostSensorAvailable(cfg.Sensor) {
		logger.Infof("using host thermal sensor %q", cfg.Sensor)
		return device.NewHostTemperatureOption(cfg.Sensor)
	}

	logger.Warnf("host sensor %q unavailable, using simulated temperature source", cfg.Sensor)
	return simulatedSource(), nil
}

// simulatedSource produces a slow thermal ramp so the monitor has
// something to chew on during demos and on hosts without sensors.
func simulatedSource() types.Option {
	start := time.Now()
	opt, _ := device.NewFuncOption("simulated temperature ramp (deg C)", func() (float64, error) {
		return 30 + time.Since(start).Minutes()*1.5, nil
	})
	return opt
}
