package serial

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ptyPort adapts a pty master end to the Port interface: SetSpeed is a
// no-op since a pseudo-terminal has no physical baud rate, the same
// accommodation any pty-backed serial test in the wild has to make.
type ptyPort struct {
	*os.File
}

func (ptyPort) SetSpeed(baud int) error { return nil }

func newPtyPair(t *testing.T) (master *ptyPort, slave *os.File) {
	t.Helper()
	m, s, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		m.Close()
		s.Close()
	})
	return &ptyPort{m}, s
}

func TestConnectStartsPumpDeliveringBytes(t *testing.T) {
	master, slave := newPtyPair(t)

	var received []byte
	done := make(chan struct{})
	s := newWithOpener("ignored", 0, func(b []byte) {
		received = append(received, b...)
		if len(received) >= len("hello radio") {
			close(done)
		}
	}, func(string) (Port, error) { return master, nil })

	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	_, err := slave.Write([]byte("hello radio"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bytes never reached the sink")
	}
	assert.Equal(t, "hello radio", string(received))
}

func TestWriteSendsBytesToPort(t *testing.T) {
	master, slave := newPtyPair(t)

	s := newWithOpener("ignored", 0, func([]byte) {}, func(string) (Port, error) { return master, nil })
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	require.NoError(t, s.Write(context.Background(), []byte("outbound")))

	buf := make([]byte, len("outbound"))
	slave.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := slave.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "outbound", string(buf[:n]))
}

func TestWriteBeforeConnectFails(t *testing.T) {
	s := New("ignored", 0, func([]byte) {})
	err := s.Write(context.Background(), []byte("x"))
	assert.Error(t, err)
}

func TestPingReflectsConnectionState(t *testing.T) {
	master, _ := newPtyPair(t)
	s := newWithOpener("ignored", 0, func([]byte) {}, func(string) (Port, error) { return master, nil })

	ok, err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Connect(context.Background()))
	ok, err = s.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
