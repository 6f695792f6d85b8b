package portmon

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound  = errors.New("serial device not found")
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	ErrInvalidConfig   = errors.New("invalid session configuration")
	ErrPortClosed      = errors.New("serial port is closed")

	// Session errors
	ErrNotOpen                = errors.New("port is not open")
	ErrOpenFailed             = errors.New("failed to open port")
	ErrReadFailed             = errors.New("read from port failed")
	ErrResetPending           = errors.New("reset already in flight for port")
	ErrResetTargetUnavailable = errors.New("reset target is no longer open")

	// USB-related errors
	ErrUSBInfoNotAvailable  = errors.New("USB device information not available")
	ErrUSBResetNotAvailable = errors.New("usbreset utility not available")
)
