package httptransport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePoller stubs Poller without a real listener, routing requests by
// method+path to canned responses.
type fakePoller struct {
	mu        sync.Mutex
	configOK  bool
	fromRadio [][]byte
	writes    [][]byte
}

func (f *fakePoller) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case req.Method == http.MethodGet && req.URL.Path == "/api/v1/config":
		status := http.StatusServiceUnavailable
		if f.configOK {
			status = http.StatusOK
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	case req.Method == http.MethodGet && req.URL.Path == "/api/v1/fromradio":
		var body []byte
		if len(f.fromRadio) > 0 {
			body = f.fromRadio[0]
			f.fromRadio = f.fromRadio[1:]
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body))}, nil
	case req.Method == http.MethodPut && req.URL.Path == "/api/v1/toradio":
		data, _ := io.ReadAll(req.Body)
		f.writes = append(f.writes, data)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	default:
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	}
}

func TestPingReflectsNodeAvailability(t *testing.T) {
	fp := &fakePoller{configOK: true}
	h := New("http://radio.local", func([]byte) {})
	h.client = fp
	ok, err := h.Ping(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	fp.configOK = false
	ok, err = h.Ping(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritePutsPayload(t *testing.T) {
	fp := &fakePoller{configOK: true}
	h := New("http://radio.local", func([]byte) {})
	h.client = fp

	require.NoError(t, h.Write(context.Background(), []byte("framed-bytes")))

	require.Len(t, fp.writes, 1)
	assert.Equal(t, []byte("framed-bytes"), fp.writes[0])
}

func TestConnectStartsPumpDeliveringMessages(t *testing.T) {
	fp := &fakePoller{configOK: true, fromRadio: [][]byte{[]byte("msg-one"), []byte("msg-two")}}
	h := New("http://radio.local", nil)
	h.client = fp
	h.pollInterval = 10 * time.Millisecond

	var mu sync.Mutex
	var received [][]byte
	h.onMsg = func(b []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, b)
	}

	require.NoError(t, h.Connect(context.Background()))
	defer h.Disconnect()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) >= 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []byte("msg-one"), received[0])
	assert.Equal(t, []byte("msg-two"), received[1])
}

func TestCandidateBaseURL(t *testing.T) {
	c := Candidate{Host: "192.168.1.50", Port: 80}
	assert.Equal(t, "http://192.168.1.50:80", c.BaseURL())
}
