// Package registry holds the configured set of downstream consumers and
// fans validated messages out to every connected one. Delivery is
// independent per consumer: a failing slot is detached and handed back to
// its reconnect watcher without affecting the remaining slots.
package registry

import (
	"log/slog"

	"github.com/loykin/serialfan/internal/metrics"
)

// Registry is an arena of consumer slots iterated in stable insertion
// order.
type Registry struct {
	consumers []*Consumer
}

// New constructs a registry over the given consumer slots.
func New(consumers ...*Consumer) *Registry {
	return &Registry{consumers: consumers}
}

// Consumers returns the slots in insertion order.
func (r *Registry) Consumers() []*Consumer {
	return r.consumers
}

// Forward writes line plus a single newline, verbatim, to every connected
// consumer and returns how many received it. A write failure detaches that
// consumer's connection and kicks its reconnect watcher; later slots are
// still attempted. Messages for a slot with no connection are dropped.
func (r *Registry) Forward(line string) int {
	payload := make([]byte, 0, len(line)+1)
	payload = append(payload, line...)
	payload = append(payload, '\n')

	delivered := 0
	for _, c := range r.consumers {
		if !c.enabled {
			continue
		}
		h := c.conn.Load()
		if h == nil {
			metrics.IncDropped(c.name)
			continue
		}
		if _, err := h.c.Write(payload); err != nil {
			slog.Error("forward failed, detaching consumer",
				"consumer", c.name, "addr", c.addr, "error", err)
			metrics.IncForwardErrors(c.name)
			c.detach(h)
			c.Kick()
			continue
		}
		metrics.IncForwarded(c.name)
		delivered++
	}
	if delivered > 0 {
		slog.Debug("forwarded", "line", line, "consumers", delivered)
	}
	return delivered
}
