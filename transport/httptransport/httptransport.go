// Package httptransport implements transport.Transport over the Meshtastic
// HTTP API (long-poll GET /api/v1/fromradio, PUT /api/v1/toradio), the
// network counterpart of the teacher's dns_sd.go + network.go pairing: same
// github.com/brutella/dnssd library, used here to browse for a radio's
// advertised HTTP service instead of announcing one.
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brutella/dnssd"

	"github.com/n5hq/meshcore/transport"
)

// ServiceType is the DNS-SD service type Meshtastic HTTP-capable nodes
// advertise on the local network.
const ServiceType = "_meshtastic._tcp"

// Candidate is one HTTP-capable radio discovered via mDNS.
type Candidate struct {
	Host string
	Port int
	Text map[string]string
}

// BaseURL returns the http://host:port root this candidate answers on.
func (c Candidate) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Discover browses ServiceType for dur, returning every candidate seen. It
// is the client-side mirror of the teacher's dns_sd_announce, built on the
// same pure-Go github.com/brutella/dnssd responder/browser pair so no
// system mDNS daemon is required on either end.
func Discover(ctx context.Context, dur time.Duration) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	var mu sync.Mutex
	var found []Candidate

	add := func(e dnssd.BrowseEntry) {
		mu.Lock()
		defer mu.Unlock()
		if len(e.IPs) == 0 {
			return
		}
		host := e.IPs[0].String()
		port := e.Port
		if override, ok := e.Text["port"]; ok {
			if p, err := parsePort(override); err == nil {
				port = p
			}
		}
		found = append(found, Candidate{Host: host, Port: port, Text: e.Text})
	}
	remove := func(dnssd.BrowseEntry) {}

	err := dnssd.LookupType(ctx, ServiceType, add, remove)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("httptransport: discover: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return found, nil
}

// Poller is an http.Client's interface subset this package depends on, so
// tests can substitute a fake server round tripper.
type Poller interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTP is a transport.Transport backed by long-poll GET/PUT against a
// Meshtastic node's HTTP API. Unlike the serial/BLE adapters, a response
// body here already delimits exactly one complete protobuf message, so this
// transport does not run bytes through the frame codec: its ByteSink is
// invoked once per poll with one whole FromRadio payload, never a partial
// chunk (spec.md §6's "implementation-specific pump").
type HTTP struct {
	baseURL string
	client  Poller
	onMsg   transport.ByteSink

	pollInterval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// New returns an HTTP transport against baseURL (e.g. "http://192.168.1.50"),
// delivering one complete message per successful poll to onMessage.
func New(baseURL string, onMessage transport.ByteSink) *HTTP {
	return &HTTP{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 15 * time.Second},
		onMsg:        onMessage,
		pollInterval: 2 * time.Second,
	}
}

// Connect starts the long-poll loop. There is no persistent connection to
// establish over HTTP itself; Connect's job is to start the background
// poller and confirm the node answers.
func (h *HTTP) Connect(ctx context.Context) error {
	if ok, err := h.Ping(ctx); err != nil || !ok {
		if err != nil {
			return fmt.Errorf("httptransport: connect: %w", err)
		}
		return fmt.Errorf("httptransport: connect: node did not respond")
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.running = true
	h.mu.Unlock()

	go h.pump(pumpCtx)
	return nil
}

// pump repeatedly GETs /api/v1/fromradio, delivering each non-empty body to
// onMsg, until ctx is cancelled by Disconnect.
func (h *HTTP) pump(ctx context.Context) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			body, err := h.poll(ctx)
			if err != nil {
				continue
			}
			if len(body) > 0 {
				h.onMsg(body)
			}
		}
	}
}

func (h *HTTP) poll(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/fromradio?all=false", nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httptransport: poll: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Disconnect stops the poll loop.
func (h *HTTP) Disconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil
	}
	h.cancel()
	h.running = false
	return nil
}

// Write PUTs payload as the body of /api/v1/toradio. payload is the
// already-framed bytes per the transport.Transport contract; the HTTP API
// is message-delimited by the request body itself, so the frame header is
// redundant on the wire but harmless, and keeps a single queue write path
// for every transport kind.
func (h *HTTP) Write(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.baseURL+"/api/v1/toradio", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("httptransport: write: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httptransport: write: status %s", resp.Status)
	}
	return nil
}

// Ping issues a lightweight GET against the node's /api/v1/config endpoint.
func (h *HTTP) Ping(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/config", nil)
	if err != nil {
		return false, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		var netErr net.Error
		if ok := isNetErr(err, &netErr); ok {
			return false, nil
		}
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func isNetErr(err error, target *net.Error) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ne, ok := err.(net.Error); ok {
			*target = ne
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// parsePort parses a TXT-record "port" override, used by Discover when an
// advertisement's TXT data disagrees with the SRV record's port.
func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}
