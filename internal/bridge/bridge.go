// Package bridge runs the forwarding loop: it reads byte chunks from the
// serial source, drives the line framer, validates each framed line as a
// JSON payload, and fans the valid ones out through the consumer registry.
package bridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/loykin/serialfan/internal/framer"
	"github.com/loykin/serialfan/internal/metrics"
	"github.com/loykin/serialfan/internal/payload"
	"github.com/loykin/serialfan/internal/registry"
	"github.com/loykin/serialfan/internal/serial"
)

const defaultBufferSize = 1024

// Bridge is the forwarding loop orchestrator. Source reads are expected to
// return quickly when no data is available (see serial.IsNoData); that is
// what keeps the loop responsive to cancellation.
type Bridge struct {
	Source   io.Reader
	Registry *registry.Registry
	// Capture, when set, receives a copy of every forwarded line plus its
	// newline. Capture failures are logged, never fatal.
	Capture    io.Writer
	BufferSize int
}

// New constructs a Bridge over the given source and registry.
func New(src io.Reader, reg *registry.Registry) *Bridge {
	return &Bridge{Source: src, Registry: reg, BufferSize: defaultBufferSize}
}

// Run reads until ctx is canceled (returns nil) or the source fails with a
// hard read error (returns it). Per-consumer write failures are absorbed by
// the registry and never terminate the loop.
func (b *Bridge) Run(ctx context.Context) error {
	size := b.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	buf := make([]byte, size)
	f := &framer.Framer{}

	slog.Info("starting forwarding")
	for {
		select {
		case <-ctx.Done():
			slog.Info("forwarding stopped")
			return nil
		default:
		}

		n, err := b.Source.Read(buf)
		if n > 0 {
			metrics.AddBytes(n)
			before := f.Replaced()
			lines := f.Feed(buf[:n])
			metrics.AddDecodeReplacements(f.Replaced() - before)
			metrics.IncLines(len(lines))
			for _, line := range lines {
				b.dispatch(line)
			}
		}
		if err != nil {
			if serial.IsNoData(err) {
				continue
			}
			metrics.IncReadErrors()
			return fmt.Errorf("serial read: %w", err)
		}
	}
}

func (b *Bridge) dispatch(line string) {
	if err := payload.Validate(line); err != nil {
		metrics.IncInvalid()
		slog.Warn("dropping invalid payload", "error", err)
		return
	}
	if b.Capture != nil {
		if _, err := io.WriteString(b.Capture, line+"\n"); err != nil {
			slog.Warn("capture write failed", "error", err)
		}
	}
	b.Registry.Forward(line)
}
