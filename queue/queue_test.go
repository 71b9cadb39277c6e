package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n5hq/meshcore/frame"
)

func recordingWriter() (WriteFunc, func() [][]byte) {
	var mu sync.Mutex
	var sent [][]byte
	return func(ctx context.Context, payload []byte) error {
			mu.Lock()
			defer mu.Unlock()
			cp := append([]byte(nil), payload...)
			sent = append(sent, cp)
			return nil
		}, func() [][]byte {
			mu.Lock()
			defer mu.Unlock()
			return sent
		}
}

func TestEnqueueRejectsOversizePayload(t *testing.T) {
	q := New()
	_, err := q.Enqueue(1, make([]byte, frame.MaxPayload+1))
	require.Error(t, err)
	var tooLarge *ErrPayloadTooLarge
	require.ErrorAs(t, err, &tooLarge)
}

func TestDrainSendsInEnqueueOrder(t *testing.T) {
	q := New()
	write, sent := recordingWriter()

	_, err := q.Enqueue(1, []byte("a"))
	require.NoError(t, err)
	_, err = q.Enqueue(2, []byte("b"))
	require.NoError(t, err)
	_, err = q.Enqueue(3, []byte("c"))
	require.NoError(t, err)

	require.NoError(t, q.Drain(context.Background(), write))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, sent())
}

func TestAckResolvesFuture(t *testing.T) {
	q := New()
	write, _ := recordingWriter()

	fut, err := q.Enqueue(42, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, q.Drain(context.Background(), write))

	q.ProcessAck(42)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	id, err := fut.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)
}

func TestErrorResolvesFutureWithRoutingError(t *testing.T) {
	q := New()
	write, _ := recordingWriter()

	fut, err := q.Enqueue(7, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, q.Drain(context.Background(), write))

	q.ProcessError(7, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	require.Error(t, err)
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, uint32(5), routingErr.Reason)
}

func TestUnknownIDAckIsNoOp(t *testing.T) {
	q := New()
	write, _ := recordingWriter()

	fut, err := q.Enqueue(1, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, q.Drain(context.Background(), write))

	q.ProcessAck(999) // unrelated id, must not touch entry 1

	q.ProcessAck(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	assert.NoError(t, err)
}

func TestClearCancelsPendingFutures(t *testing.T) {
	q := New()
	fut, err := q.Enqueue(1, []byte("never sent"))
	require.NoError(t, err)

	q.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, 0, q.Len())
}

func TestDrainIsReentrantSafe(t *testing.T) {
	q := New()
	write, sent := recordingWriter()

	_, err := q.Enqueue(1, []byte("a"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Drain(context.Background(), write)
		}()
	}
	wg.Wait()

	assert.Equal(t, [][]byte{[]byte("a")}, sent())
}

func TestTransportErrorResolvesFuture(t *testing.T) {
	q := New()
	boom := errors.New("boom")
	write := func(ctx context.Context, payload []byte) error { return boom }

	fut, err := q.Enqueue(1, []byte("payload"))
	require.NoError(t, err)

	err = q.Drain(context.Background(), write)
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(transportErr, boom))
}
