package portmon

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Serial device name patterns worth considering at all
var serialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
}

// Device names that are USB-attached by construction
var usbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`),
	regexp.MustCompile(`^ttyACM\d+$`),
}

// Virtual terminals and other non-serial devices
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tty\d+$`),
	regexp.MustCompile(`^console$`),
	regexp.MustCompile(`^ptmx$`),
	regexp.MustCompile(`^pty.*$`),
}

const (
	defaultDevDir = "/dev"
	defaultSysDir = "/sys/class/tty"
)

// ListUSBPorts returns the USB-attached serial ports currently visible on
// the system, sorted lexicographically. A port counts as USB-attached when
// its device name is a USB bridge pattern (ttyUSB*, ttyACM*) or when the
// bus-reported description contains a USB marker. An empty system is a
// valid empty result, never an error.
func ListUSBPorts() ([]string, error) {
	return listUSBPorts(defaultDevDir, defaultSysDir)
}

func listUSBPorts(devDir, sysDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()

		if matchesAny(excludePatterns, name) || !matchesAny(serialPatterns, name) {
			continue
		}
		if !isUSBAttached(sysDir, name) {
			continue
		}

		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// isUSBAttached applies the USB filter: name pattern first, then the
// description reported by the bus
func isUSBAttached(sysDir, name string) bool {
	if matchesAny(usbPatterns, name) {
		return true
	}
	desc := portDescription(sysDir, name)
	return strings.Contains(strings.ToUpper(desc), "USB")
}

// portDescription reads the bus-reported description for a tty from sysfs.
// Returns "" when the device exposes none (built-in UARTs).
func portDescription(sysDir, name string) string {
	deviceDir := filepath.Join(sysDir, name, "device")
	for _, rel := range []string{"interface", "../product", "../../product"} {
		if v := readSysfsFile(filepath.Join(deviceDir, rel)); v != "" {
			return v
		}
	}
	return ""
}

// readSysfsFile reads a single-value sysfs attribute, trimmed.
// Missing files read as "".
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a discovered serial port
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
	BusNumber    string
	DeviceNumber string
}

// GetPortInfo returns metadata for a specific port, enriched from sysfs
// for USB-attached devices
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name: name,
		Path: portPath,
	}

	sysDir := defaultSysDir
	if info.Description = portDescription(sysDir, name); info.Description == "" {
		info.Description = "Serial Port"
	}

	if usbDir, ok := findUSBDeviceDir(filepath.Join(sysDir, name, "device")); ok {
		info.VendorID = readSysfsFile(filepath.Join(usbDir, "idVendor"))
		info.ProductID = readSysfsFile(filepath.Join(usbDir, "idProduct"))
		info.SerialNumber = readSysfsFile(filepath.Join(usbDir, "serial"))
		info.BusNumber = readSysfsFile(filepath.Join(usbDir, "busnum"))
		info.DeviceNumber = readSysfsFile(filepath.Join(usbDir, "devnum"))
	}

	return info, nil
}

// findUSBDeviceDir walks up from a tty's device directory looking for the
// USB device node (the level that carries idVendor)
func findUSBDeviceDir(start string) (string, bool) {
	dir, err := filepath.EvalSymlinks(start)
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			return dir, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}
