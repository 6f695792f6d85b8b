package portmon

import (
	"fmt"
	"os/exec"
	"strconv"
)

// ResetUSBDevice performs a USB bus-level reset of the bridge behind a
// port. This is a heavier hammer than the DTR/RTS sequence: it recovers
// adapters that are hung at the USB layer, at the cost of re-enumeration
// (the port path may change afterwards).
//
// Requires the usbreset utility (usbutils package) and permissions to
// access the USB device node.
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	// usbreset expects zero-padded 3-digit bus and device numbers
	bus, err := strconv.Atoi(info.BusNumber)
	if err != nil {
		return ErrUSBInfoNotAvailable
	}
	dev, err := strconv.Atoi(info.DeviceNumber)
	if err != nil {
		return ErrUSBInfoNotAvailable
	}
	usbPath := fmt.Sprintf("%03d/%03d", bus, dev)

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// IsUSBResetAvailable checks if the usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
