package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/loykin/serialfan/internal/bridge"
	"github.com/loykin/serialfan/internal/metrics"
	"github.com/loykin/serialfan/internal/registry"
	"github.com/loykin/serialfan/internal/serial"
	"github.com/loykin/serialfan/internal/supervisor"
)

func main() {
	config := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "serialfan",
		Short: "Forward newline-delimited JSON from a serial device to TCP consumers",
		Long: `serialfan opens a serial device, reassembles its byte stream into
newline-delimited messages, validates each message as JSON, and fans the
valid ones out to up to two downstream TCP consumers.

Examples:
  # Forward to the primary consumer on its default port
  serialfan --primary.enable

  # Both consumers, custom device and ports
  serialfan --device /dev/ttyUSB0 --primary.enable --primary.port 7001 --secondary.enable --secondary.port 7002

  # Expose Prometheus metrics
  serialfan --primary.enable --prometheus.enable`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadFromViper(cmd); err != nil {
				return err
			}
			return config.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(config)
		},
	}

	// Setup flags from config
	config.SetupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func runBridge(config *Config) error {
	// Optionally start Prometheus metrics endpoint
	var metricsStop = func() error { return nil }
	if config.Prometheus.Enable {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register prometheus metrics: %w", err)
		}
		metricsServer, err := metrics.Start(config.Prometheus.Addr)
		if err != nil {
			return fmt.Errorf("failed to start prometheus endpoint: %w", err)
		}
		metricsStop = metricsServer.Stop
	}
	defer func() { _ = metricsStop() }()

	// Open the serial source
	port, err := serial.Open(serial.Config{
		Device:      config.Serial.Device,
		Baud:        config.Serial.Baud,
		ReadTimeout: config.Serial.ReadTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()
	slog.Info("serial device open", "device", config.Serial.Device, "baud", config.Serial.Baud)

	// Build the consumer slots in their fixed order
	reg := registry.New(
		registry.NewConsumer("primary", net.JoinHostPort(config.Host, strconv.Itoa(config.Primary.Port)), config.Primary.Enable),
		registry.NewConsumer("secondary", net.JoinHostPort(config.Host, strconv.Itoa(config.Secondary.Port)), config.Secondary.Enable),
	)

	// Shut down on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect every enabled consumer before forwarding starts, one at a
	// time; each connect retries until the consumer is reachable.
	sup := supervisor.New()
	for _, c := range reg.Consumers() {
		if !c.Enabled() {
			continue
		}
		if err := sup.Connect(ctx, c); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	// Background reconnect watchers, one per enabled consumer
	for _, c := range reg.Consumers() {
		if c.Enabled() {
			go sup.Watch(ctx, c)
		}
	}

	b := bridge.New(port, reg)
	if config.Capture.Enable {
		capture := &lumberjack.Logger{
			Filename:   config.Capture.Path,
			MaxSize:    config.Capture.MaxSize,
			MaxBackups: config.Capture.MaxBackups,
			MaxAge:     config.Capture.MaxAge,
			Compress:   config.Capture.Compress,
		}
		defer func() { _ = capture.Close() }()
		b.Capture = capture
		slog.Info("capturing forwarded lines", "path", config.Capture.Path)
	}

	return b.Run(ctx)
}
