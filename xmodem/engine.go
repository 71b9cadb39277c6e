// Package xmodem implements the in-band block transfer sub-protocol of
// spec.md §4.5: an XMODEM-flavored send/receive engine running over
// schema-level XModemPacket control+data messages rather than literal 1977
// XMODEM bytes. It is grounded on the teacher's fx25_send.go block-with-
// retry send loop and il2p_crc.go's CRC routines, generalized from Dire
// Wolf's AX.25-frame FEC blocks to Meshtastic's fixed-size XMODEM blocks.
package xmodem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/n5hq/meshcore/pb"
)

// BlockSize is the fixed block length the schema dictates (spec.md §4.5).
const BlockSize = 128

// MaxRetries bounds retransmission of a single block on NAK (spec.md §4.5).
const MaxRetries = 10

// ResponseTimeout bounds how long SendFile waits for an ACK/NAK. When it
// expires, SendFile fails the transfer without retransmitting (the source
// protocol has no explicit per-request timeout per spec.md §5, but the
// sender needs *some* wait bound to ever give up).
const ResponseTimeout = 10 * time.Second

// State is the engine's current activity (spec.md §3 "XMODEM state").
type State int

const (
	Idle State = iota
	Sending
	Receiving
	AwaitingAck
)

// ErrBusy is returned by SendFile/ReceiveFile when the engine is already
// running a transfer.
var ErrBusy = errors.New("xmodem: engine busy")

// ErrRetriesExhausted is returned by SendFile when a block is NAKed
// MaxRetries times in a row.
var ErrRetriesExhausted = errors.New("xmodem: retries exhausted")

// ErrChecksum reports a SOH block whose CRC does not match its declared
// CRC16. The receive path does not return it: it answers such a block
// with NAK.
var ErrChecksum = errors.New("xmodem: checksum mismatch")

// Sender transmits a single XMODEM control+data packet over the session's
// frame channel. It is constructor-injected (spec.md §9 design note:
// "cleanly expressed as a constructor-injected sender handle rather than a
// captured method") so the engine never reaches back into the session.
type Sender func(ctx context.Context, pkt *pb.XModemPacket) error

// Engine runs one XMODEM transfer at a time, send or receive, matching
// spec.md §3's single xmodemState value.
type Engine struct {
	send Sender

	state   State
	inbound chan *pb.XModemPacket

	recvBuf  []byte
	recvSeq  uint32
	recvDone chan recvResult
}

type recvResult struct {
	buf []byte
	err error
}

// New returns an idle Engine that transmits via send.
func New(send Sender) *Engine {
	return &Engine{
		send:    send,
		state:   Idle,
		inbound: make(chan *pb.XModemPacket, 1),
	}
}

// State reports the engine's current activity.
func (e *Engine) State() State { return e.state }

// HandlePacket feeds one inbound XModemPacket to the engine (spec.md §4.5).
// It is wired by the session as the fromRadio demultiplexer's xmodemPacket
// case (spec.md §4.4.3).
func (e *Engine) HandlePacket(ctx context.Context, pkt *pb.XModemPacket) error {
	switch e.state {
	case Receiving:
		return e.handleReceive(ctx, pkt)
	case Sending, AwaitingAck:
		select {
		case e.inbound <- pkt:
		default:
			// A stale reply arriving after we already gave up on this
			// attempt; drop it rather than block the demultiplexer.
		}
		return nil
	default:
		// Idle: nothing is in flight, ignore unsolicited packets.
		return nil
	}
}

func (e *Engine) handleReceive(ctx context.Context, pkt *pb.XModemPacket) error {
	switch pkt.Control {
	case pb.XModemSOH:
		if pkt.Seq == e.recvSeq && CRC16(pkt.Buffer) == uint16(pkt.CRC16) {
			e.recvBuf = append(e.recvBuf, pkt.Buffer...)
			ack := pkt.Seq
			e.recvSeq++
			return e.send(ctx, &pb.XModemPacket{Control: pb.XModemACK, Seq: ack})
		}
		return e.send(ctx, &pb.XModemPacket{Control: pb.XModemNAK, Seq: pkt.Seq})
	case pb.XModemEOT:
		if err := e.send(ctx, &pb.XModemPacket{Control: pb.XModemACK}); err != nil {
			e.finishReceive(nil, err)
			return err
		}
		e.finishReceive(e.recvBuf, nil)
		return nil
	case pb.XModemCAN:
		e.finishReceive(nil, fmt.Errorf("xmodem: sender cancelled transfer"))
		return nil
	}
	return nil
}

func (e *Engine) finishReceive(buf []byte, err error) {
	if e.recvDone != nil {
		e.recvDone <- recvResult{buf: buf, err: err}
		e.recvDone = nil
	}
}

// ReceiveFile waits for an in-band block transfer initiated by the radio,
// returning the reassembled buffer once EOT is acknowledged.
func (e *Engine) ReceiveFile(ctx context.Context) ([]byte, error) {
	if e.state != Idle {
		return nil, ErrBusy
	}
	e.state = Receiving
	e.recvBuf = nil
	e.recvSeq = 1
	e.recvDone = make(chan recvResult, 1)
	defer func() { e.state = Idle }()

	select {
	case res := <-e.recvDone:
		return res.buf, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendFile divides data into BlockSize blocks, transmits each as
// SOH(seq)+block+CRC and waits for ACK(seq) before advancing, retrying on
// NAK up to MaxRetries, then sends EOT and awaits its ACK (spec.md §4.5).
func (e *Engine) SendFile(ctx context.Context, data []byte) error {
	if e.state != Idle {
		return ErrBusy
	}
	e.state = Sending
	defer func() { e.state = Idle }()

	blocks := chunk(data, BlockSize)
	for i, block := range blocks {
		seq := uint32(i + 1)
		pkt := &pb.XModemPacket{
			Control: pb.XModemSOH,
			Seq:     seq,
			Buffer:  block,
			CRC16:   uint32(CRC16(block)),
		}
		if err := e.sendBlockWithRetry(ctx, pkt, seq); err != nil {
			_ = e.send(ctx, &pb.XModemPacket{Control: pb.XModemCAN})
			return err
		}
	}

	e.state = AwaitingAck
	if err := e.send(ctx, &pb.XModemPacket{Control: pb.XModemEOT}); err != nil {
		return err
	}
	_, err := e.awaitControl(ctx, pb.XModemACK)
	return err
}

func (e *Engine) sendBlockWithRetry(ctx context.Context, pkt *pb.XModemPacket, seq uint32) error {
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if err := e.send(ctx, pkt); err != nil {
			return err
		}
		resp, err := e.awaitControl(ctx, pb.XModemACK, pb.XModemNAK)
		if err != nil {
			return err
		}
		if resp.Control == pb.XModemACK && resp.Seq == seq {
			return nil
		}
		// NAK, or an ACK for a stale seq: retransmit the current block.
	}
	return ErrRetriesExhausted
}

// awaitControl blocks until a packet with one of the wanted control codes
// arrives on e.inbound, or ctx/ResponseTimeout expires.
func (e *Engine) awaitControl(ctx context.Context, want ...pb.XModemControl) (*pb.XModemPacket, error) {
	timer := time.NewTimer(ResponseTimeout)
	defer timer.Stop()
	for {
		select {
		case pkt := <-e.inbound:
			for _, w := range want {
				if pkt.Control == w {
					return pkt, nil
				}
			}
			// Unexpected control code: keep waiting within the timeout.
		case <-timer.C:
			return nil, fmt.Errorf("xmodem: timed out waiting for response")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func chunk(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var out [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
