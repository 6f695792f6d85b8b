package portmon

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Device is the capability surface a connection needs from its serial
// handle. The production implementation is a raw termios file descriptor;
// tests substitute in-memory fakes.
type Device interface {
	// InWaiting reports how many received bytes are buffered by the driver.
	InWaiting() (int, error)
	// Read drains up to len(buf) buffered bytes. Never blocks when the
	// device was opened by OpenDevice (VMIN=0/VTIME=0).
	Read(buf []byte) (int, error)
	// SetControlLines drives the DTR and RTS modem lines.
	SetControlLines(dtr, rts bool) error
	Close() error
}

// DeviceOpener constructs a Device for a port path at the configured rate.
type DeviceOpener func(path string, cfg Config) (Device, error)

// ttyDevice is the concrete termios-backed Device
type ttyDevice struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

// Ensure ttyDevice implements Device at compile time
var _ Device = (*ttyDevice)(nil)

// baudRateConstant converts an integer baud rate to the unix constant
func baudRateConstant(rate int) (uint32, error) {
	switch rate {
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 2000000:
		return unix.B2000000, nil
	case 3000000:
		return unix.B3000000, nil
	default:
		return 0, ErrInvalidBaudRate
	}
}

// OpenDevice opens a serial device in raw 8N1 mode with fully non-blocking
// reads. It is the production DeviceOpener used by the Registry.
func OpenDevice(path string, cfg Config) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpenFailed, path, err)
	}

	if err := configureTTY(fd, cfg.BaudRate); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &ttyDevice{fd: fd}, nil
}

// configureTTY puts the descriptor into raw mode at the requested rate.
// VMIN=0/VTIME=0 makes every read return immediately with whatever the
// driver has buffered.
func configureTTY(fd int, baudRate int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	rate, err := baudRateConstant(baudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | rate
	termios.Ispeed = rate
	termios.Ospeed = rate

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}
	return nil
}

// InWaiting reports the driver's receive queue depth
func (d *ttyDevice) InWaiting() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrPortClosed
	}

	return unix.IoctlGetInt(d.fd, unix.TIOCINQ)
}

// Read drains buffered bytes; returns 0 when nothing is waiting
func (d *ttyDevice) Read(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrPortClosed
	}

	n, err := unix.Read(d.fd, buf)
	if err == unix.EAGAIN {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return n, nil
}

// SetControlLines drives DTR and RTS with individual TIOCMBIS/TIOCMBIC
// ioctls so each line can be held independently
func (d *ttyDevice) SetControlLines(dtr, rts bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrPortClosed
	}

	if err := setModemBit(d.fd, unix.TIOCM_DTR, dtr); err != nil {
		return err
	}
	return setModemBit(d.fd, unix.TIOCM_RTS, rts)
}

func setModemBit(fd, bit int, state bool) error {
	if state {
		return unix.IoctlSetInt(fd, unix.TIOCMBIS, bit)
	}
	return unix.IoctlSetInt(fd, unix.TIOCMBIC, bit)
}

// Close releases the descriptor; closing twice returns ErrPortClosed
func (d *ttyDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrPortClosed
	}

	err := unix.Close(d.fd)
	d.closed = true
	return err
}
