// Package supervisor establishes and maintains the outbound consumer
// connections. Initial connects block with a fixed retry interval until the
// consumer is reachable; once forwarding is running, each consumer gets a
// watcher that redials with exponential backoff whenever the registry
// detaches a broken connection.
package supervisor

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/loykin/serialfan/internal/metrics"
	"github.com/loykin/serialfan/internal/registry"
)

// DialFunc opens a connection to a consumer address.
type DialFunc func(addr string) (net.Conn, error)

// Supervisor dials consumer endpoints. The zero value is not usable; call
// New and override fields before use if needed (tests inject Dial and
// Clock).
type Supervisor struct {
	Dial          DialFunc
	Clock         clockwork.Clock
	RetryInterval time.Duration
}

// New returns a Supervisor dialing real TCP connections with a 3 second
// retry interval for the initial connect phase.
func New() *Supervisor {
	return &Supervisor{
		Dial:          func(addr string) (net.Conn, error) { return net.Dial("tcp", addr) },
		Clock:         clockwork.NewRealClock(),
		RetryInterval: 3 * time.Second,
	}
}

// Connect dials the consumer's address, retrying at a fixed interval with
// no attempt limit, and attaches the connection once established. It fails
// only when ctx is canceled, so by the time forwarding starts every enabled
// consumer is connected.
func (s *Supervisor) Connect(ctx context.Context, c *registry.Consumer) error {
	slog.Info("connecting to consumer", "consumer", c.Name(), "addr", c.Addr())
	for {
		conn, err := s.Dial(c.Addr())
		if err == nil {
			c.Attach(conn)
			slog.Info("connected to consumer", "consumer", c.Name(), "addr", c.Addr())
			return nil
		}
		slog.Info("waiting for consumer",
			"consumer", c.Name(), "addr", c.Addr(), "retry_in", s.RetryInterval, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Clock.After(s.RetryInterval):
		}
	}
}

// Watch waits for reconnect kicks from the registry and redials under
// exponential backoff, swapping the fresh connection into the slot. The
// forwarding path never blocks on this. Run one Watch goroutine per
// enabled consumer; it returns when ctx is canceled.
func (s *Supervisor) Watch(ctx context.Context, c *registry.Consumer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Kicked():
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = time.Second
		bo.MaxInterval = 30 * time.Second
		bo.MaxElapsedTime = 0

		for {
			conn, err := s.Dial(c.Addr())
			if err == nil {
				c.Attach(conn)
				metrics.IncReconnects(c.Name())
				slog.Info("reconnected to consumer", "consumer", c.Name(), "addr", c.Addr())
				break
			}
			wait := bo.NextBackOff()
			slog.Warn("reconnect failed",
				"consumer", c.Name(), "addr", c.Addr(), "retry_in", wait, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-s.Clock.After(wait):
			}
		}
	}
}
