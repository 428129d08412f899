package registry

import (
	"net"
	"sync/atomic"
)

// connHandle wraps the live connection so the whole handle can be swapped
// atomically between the forwarding path and the reconnect watcher.
type connHandle struct {
	c net.Conn
}

// Consumer is one forwarding slot: a named downstream endpoint, its enabled
// flag, and the current connection (if any). A disabled consumer's slot
// stays permanently empty; an enabled consumer's connection is attached by
// its supervisor and detached by the registry on write failure.
type Consumer struct {
	name    string
	addr    string
	enabled bool
	conn    atomic.Pointer[connHandle]
	kick    chan struct{}
}

// NewConsumer constructs a consumer slot for the given endpoint.
func NewConsumer(name, addr string, enabled bool) *Consumer {
	return &Consumer{
		name:    name,
		addr:    addr,
		enabled: enabled,
		kick:    make(chan struct{}, 1),
	}
}

// Name returns the consumer's identity used in logs and metrics.
func (c *Consumer) Name() string { return c.name }

// Addr returns the consumer's host:port address.
func (c *Consumer) Addr() string { return c.addr }

// Enabled reports whether this slot participates in forwarding at all.
func (c *Consumer) Enabled() bool { return c.enabled }

// Connected reports whether a connection is currently attached.
func (c *Consumer) Connected() bool { return c.conn.Load() != nil }

// Attach swaps conn into the slot. Any previously attached connection is
// closed.
func (c *Consumer) Attach(conn net.Conn) {
	if old := c.conn.Swap(&connHandle{c: conn}); old != nil {
		_ = old.c.Close()
	}
}

// Kick wakes the consumer's reconnect watcher. It never blocks; repeated
// kicks before the watcher runs coalesce into one.
func (c *Consumer) Kick() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Kicked returns the channel the reconnect watcher waits on.
func (c *Consumer) Kicked() <-chan struct{} {
	return c.kick
}

// detach removes and closes the given handle, unless the watcher already
// swapped in a newer connection.
func (c *Consumer) detach(h *connHandle) {
	if c.conn.CompareAndSwap(h, nil) {
		_ = h.c.Close()
	}
}
