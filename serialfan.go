// Package serialfan provides a simplified, stable root-level API for external users.
//
// Instead of importing internal subpackages, consumers can just:
//
//	import "github.com/loykin/serialfan"
//
// and use serialfan.NewBridge, serialfan.NewConsumer and friends directly.
package serialfan

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/serialfan/internal/bridge"
	"github.com/loykin/serialfan/internal/framer"
	"github.com/loykin/serialfan/internal/metrics"
	"github.com/loykin/serialfan/internal/registry"
	"github.com/loykin/serialfan/internal/serial"
	"github.com/loykin/serialfan/internal/supervisor"
)

// Bridge re-exports bridge.Bridge, the forwarding loop orchestrator.
type Bridge = bridge.Bridge

// Framer re-exports framer.Framer for callers that only need line framing.
type Framer = framer.Framer

// Registry and Consumer re-export the fan-out arena and its slots.
type (
	Registry = registry.Registry
	Consumer = registry.Consumer
)

// Supervisor re-exports supervisor.Supervisor for connection lifecycle
// management.
type Supervisor = supervisor.Supervisor

// SerialConfig re-exports serial.Config for opening the byte source.
type SerialConfig = serial.Config

// NewBridge constructs a forwarding loop over the given source and registry.
func NewBridge(src io.Reader, reg *Registry) *Bridge { return bridge.New(src, reg) }

// NewRegistry constructs a registry over the given consumer slots.
func NewRegistry(consumers ...*Consumer) *Registry { return registry.New(consumers...) }

// NewConsumer constructs a consumer slot for the given endpoint.
func NewConsumer(name, addr string, enabled bool) *Consumer {
	return registry.NewConsumer(name, addr, enabled)
}

// NewSupervisor constructs a supervisor with real TCP dialing and the
// default retry interval.
func NewSupervisor() *Supervisor { return supervisor.New() }

// OpenSerial opens the configured serial device.
func OpenSerial(cfg SerialConfig) (*serial.Port, error) { return serial.Open(cfg) }

// StartMetrics registers serialfan metrics on the default Prometheus
// registry and starts an HTTP server. It returns a stop function to
// gracefully shut down the metrics server.
func StartMetrics(addr string) (func() error, error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}
	srv, err := metrics.Start(addr)
	if err != nil {
		return nil, err
	}
	return srv.Stop, nil
}
