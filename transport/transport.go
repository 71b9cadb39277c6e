// Package transport defines the byte-stream contract spec.md §6 requires
// every concrete adapter (serial, BLE, HTTP) to satisfy. The concrete
// transport adapters themselves are collaborators per spec.md §1's scope
// note, not part of the protocol core; this package holds only the shared
// interface and the two adapters the retrieved example pack gives a real
// library for (serial via github.com/pkg/term, HTTP via net/http + mDNS
// discovery). A BLE adapter would satisfy the same interface against the
// Meshtastic GATT service's fromRadio/toRadio characteristics, but no
// example in the retrieval pack carries a Go BLE GATT client, so it is left
// unimplemented here (see DESIGN.md).
package transport

import "context"

// ByteSink receives bytes as they arrive from the underlying stream. The
// session wires this to the frame codec's Decoder.Feed.
type ByteSink func([]byte)

// Transport is the byte-stream contract spec.md §6 specifies.
type Transport interface {
	// Connect establishes the underlying connection and starts the
	// implementation-specific read pump that delivers bytes to the
	// ByteSink supplied at construction.
	Connect(ctx context.Context) error
	// Disconnect tears the connection down. It is safe to call more than
	// once.
	Disconnect() error
	// Write transmits one already-framed payload. The session calls it
	// from the transmit queue's drain loop, and directly for the
	// wantConfigId frame and for XMODEM frames.
	Write(ctx context.Context, payload []byte) error
	// Ping checks transport liveness without going through the frame
	// protocol.
	Ping(ctx context.Context) (bool, error)
}
