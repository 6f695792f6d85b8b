// Package portmon manages sessions against dynamically attached USB serial
// devices: it discovers ports as they appear and disappear, keeps one
// connection per port, streams decoded output lines without blocking, and
// can drive the DTR/RTS reset sequence used by common microcontroller
// dev-boards (ESP32 and friends).
//
// # Session Manager
//
// The Manager runs two periodic passes on a single goroutine: a coarse
// discovery pass that reconciles the set of attached USB ports against the
// tracked connections, and a fine polling pass that drains pending bytes
// from every open port and emits complete lines to a sink:
//
//	mgr := portmon.NewManager(portmon.DefaultConfig(), logger)
//	mgr.SetSink(func(line portmon.Line) {
//	    fmt.Printf("%s: %s\n", line.Port, line.Text)
//	})
//	mgr.Run(ctx)
//
// # Components
//
// The pieces compose and can be used on their own:
//
//   - ListUSBPorts enumerates USB-attached serial devices.
//   - Registry owns the port-to-connection mapping. Reconcile diffs a
//     discovery snapshot against it, opening new ports and closing
//     vanished ones.
//   - Poller extracts lines from open connections without ever blocking.
//   - ResetSequencer toggles DTR/RTS in two timed phases to reboot the
//     attached board.
//
// # Device Handles
//
// Connections hold their device behind the Device interface, so tests
// substitute in-memory fakes. The production implementation talks raw
// termios through golang.org/x/sys/unix with VMIN=0/VTIME=0 so reads never
// wait for data.
//
// # Error Handling
//
// Device-level failures never escape as faults: they are converted into
// connection state transitions plus boolean results. Sentinel errors
// (ErrPortClosed, ErrResetTargetUnavailable, ...) are errors.Is compatible.
//
// Serial communication is Linux-only; discovery metadata comes from sysfs.
package portmon
