// Package serial implements transport.Transport over a local serial device,
// the direct Meshtastic counterpart of the teacher's serial_port.go (same
// github.com/pkg/term.Open/SetSpeed pattern, generalized from a fixed TNC
// baud table to whatever rate the radio's USB-serial bridge advertises).
package serial

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jochenvg/go-udev"
	"github.com/pkg/term"
	"golang.org/x/sys/unix"

	"github.com/n5hq/meshcore/transport"
)

// Radio describes one USB-serial candidate discovered on the host.
type Radio struct {
	DevPath string
	Vendor  string
	Product string
}

// ListRadios enumerates tty devices currently attached via USB, using
// github.com/jochenvg/go-udev the way a hotplug-aware host application
// would locate a Meshtastic radio without a hardcoded device path. The
// teacher declares go-udev in go.mod but never imports it; this is the home
// it never got there.
func ListRadios() ([]Radio, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("tty"); err != nil {
		return nil, fmt.Errorf("serial: udev match: %w", err)
	}
	devices, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("serial: udev enumerate: %w", err)
	}

	var out []Radio
	for _, d := range devices {
		parent := d.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}
		out = append(out, Radio{
			DevPath: d.Devnode(),
			Vendor:  parent.PropertyValue("ID_VENDOR"),
			Product: parent.PropertyValue("ID_MODEL"),
		})
	}
	return out, nil
}

// Port is the minimal subset of *term.Term (and, in tests, a pty) this
// package depends on, so Connect can be unit tested against a pseudo-terminal
// pair instead of real hardware.
type Port interface {
	io.ReadWriteCloser
	SetSpeed(baud int) error
}

// Serial is a transport.Transport backed by an open serial port.
type Serial struct {
	device string
	baud   int
	onByte transport.ByteSink
	opener func(device string) (Port, error)

	mu   sync.Mutex
	port Port
	done chan struct{}
}

// New returns a Serial transport for device at baud, delivering received
// bytes to onBytes as they arrive.
func New(device string, baud int, onBytes transport.ByteSink) *Serial {
	return &Serial{
		device: device,
		baud:   baud,
		onByte: onBytes,
		opener: openRealPort,
	}
}

// newWithOpener is used by tests to substitute a pty for the real device.
func newWithOpener(device string, baud int, onBytes transport.ByteSink, opener func(string) (Port, error)) *Serial {
	return &Serial{device: device, baud: baud, onByte: onBytes, opener: opener}
}

func openRealPort(device string) (Port, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// fdPort is satisfied by *term.Term (and any other real serial port), which
// exposes the underlying file descriptor for the termios ioctls pkg/term's
// portable SetSpeed doesn't cover. The pty port used in tests also exposes
// Fd, but its SetSpeed never fails, so the fallback below is not reached
// there.
type fdPort interface {
	Fd() uintptr
}

// Connect opens the device, sets its speed, and starts the read pump.
func (s *Serial) Connect(ctx context.Context) error {
	p, err := s.opener(s.device)
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", s.device, err)
	}
	if s.baud != 0 {
		if err := p.SetSpeed(s.baud); err != nil {
			fp, ok := p.(fdPort)
			if !ok {
				_ = p.Close()
				return fmt.Errorf("serial: set speed %d on %s: %w", s.baud, s.device, err)
			}
			if tErr := terminosBaud(int(fp.Fd()), uint32(s.baud)); tErr != nil {
				_ = p.Close()
				return fmt.Errorf("serial: set speed %d on %s: %w", s.baud, s.device, tErr)
			}
		}
	}

	s.mu.Lock()
	s.port = p
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.pump(p, s.done)
	return nil
}

// pump is the implementation-specific read loop transport.ByteSink feeds
// from (spec.md §6).
func (s *Serial) pump(p Port, done chan struct{}) {
	buf := make([]byte, 256)
	for {
		n, err := p.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.onByte(chunk)
		}
		if err != nil {
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

// Disconnect closes the serial port, stopping the read pump.
func (s *Serial) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	close(s.done)
	err := s.port.Close()
	s.port = nil
	return err
}

// Write transmits payload to the serial port.
func (s *Serial) Write(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	p := s.port
	s.mu.Unlock()
	if p == nil {
		return fmt.Errorf("serial: not connected")
	}
	_, err := p.Write(payload)
	return err
}

// Ping reports whether the serial port is open. Serial has no
// application-level liveness check, so this degrades to "is the device
// still open", same as the teacher's fd != nil check in serial_port_write.
func (s *Serial) Ping(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil, nil
}

// terminosBaud is Connect's fallback when p.SetSpeed rejects a rate outside
// github.com/pkg/term's portable table (some Meshtastic USB-serial bridges
// advertise non-standard rates), setting it directly via termios ioctls.
func terminosBaud(fd int, rate uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Ispeed = rate
	t.Ospeed = rate
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}
