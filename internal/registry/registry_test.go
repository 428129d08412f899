package registry

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records writes and can be told to fail.
type fakeConn struct {
	mu     sync.Mutex
	data   []byte
	fail   bool
	closed bool
}

func (f *fakeConn) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("broken pipe")
	}
	f.data = append(f.data, p...)
	return len(p), nil
}

func (f *fakeConn) Read([]byte) (int, error) { return 0, errors.New("not implemented") }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) LocalAddr() net.Addr                { return nil }
func (f *fakeConn) RemoteAddr() net.Addr               { return nil }
func (f *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.data)
}

func TestForward_FanOut(t *testing.T) {
	a := NewConsumer("primary", "127.0.0.1:65432", true)
	b := NewConsumer("secondary", "127.0.0.1:65433", true)
	ca, cb := &fakeConn{}, &fakeConn{}
	a.Attach(ca)
	b.Attach(cb)
	r := New(a, b)

	line := `{"x":1.0,"y":-2.0,"z":0.0}`
	assert.Equal(t, 2, r.Forward(line))

	// Byte-identical payload plus a single trailing newline on both.
	assert.Equal(t, line+"\n", ca.written())
	assert.Equal(t, line+"\n", cb.written())
}

func TestForward_DisabledSlotNeverWritten(t *testing.T) {
	a := NewConsumer("primary", "127.0.0.1:65432", true)
	b := NewConsumer("secondary", "127.0.0.1:65433", false)
	ca := &fakeConn{}
	a.Attach(ca)
	r := New(a, b)

	assert.Equal(t, 1, r.Forward(`{"x":1}`))
	assert.Equal(t, "{\"x\":1}\n", ca.written())
	assert.False(t, b.Connected())
}

func TestForward_DisconnectedSlotDrops(t *testing.T) {
	a := NewConsumer("primary", "127.0.0.1:65432", true)
	r := New(a)

	assert.Equal(t, 0, r.Forward(`{"x":1}`))
}

func TestForward_FailureIsIsolated(t *testing.T) {
	a := NewConsumer("primary", "127.0.0.1:65432", true)
	b := NewConsumer("secondary", "127.0.0.1:65433", true)
	ca := &fakeConn{fail: true}
	cb := &fakeConn{}
	a.Attach(ca)
	b.Attach(cb)
	r := New(a, b)

	// The failing first slot must not suppress delivery to the second.
	assert.Equal(t, 1, r.Forward(`{"x":1}`))
	assert.Equal(t, "{\"x\":1}\n", cb.written())

	// The broken connection is detached, closed, and the watcher kicked.
	assert.False(t, a.Connected())
	assert.True(t, ca.closed)
	select {
	case <-a.Kicked():
	default:
		t.Fatal("expected reconnect kick for failed consumer")
	}

	// Subsequent messages drop on the detached slot, still flow to the rest.
	assert.Equal(t, 1, r.Forward(`{"x":2}`))
	assert.Equal(t, "{\"x\":1}\n{\"x\":2}\n", cb.written())
}

func TestAttach_ReplacesAndClosesOldConnection(t *testing.T) {
	c := NewConsumer("primary", "127.0.0.1:65432", true)
	old := &fakeConn{}
	c.Attach(old)
	require.True(t, c.Connected())

	fresh := &fakeConn{}
	c.Attach(fresh)
	assert.True(t, old.closed)
	assert.True(t, c.Connected())

	r := New(c)
	assert.Equal(t, 1, r.Forward(`1`))
	assert.Equal(t, "1\n", fresh.written())
	assert.Empty(t, old.written())
}

func TestKick_Coalesces(t *testing.T) {
	c := NewConsumer("primary", "127.0.0.1:65432", true)
	c.Kick()
	c.Kick() // must not block
	<-c.Kicked()
	select {
	case <-c.Kicked():
		t.Fatal("kicks should coalesce into one")
	default:
	}
}
