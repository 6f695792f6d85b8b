/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/portmon"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port>",
	Short: "Reboot the device behind a serial port",
	Long: `Reboot the microcontroller attached to a serial port by toggling the
DTR and RTS modem lines, the same sequence development boards use for
programmatic reset (DTR low with RTS high, held briefly, then inverted).

For adapters that are hung at the USB layer the --usb flag performs a
bus-level reset instead. The device re-enumerates afterwards, so the
port path may change.

Requirements for --usb:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  portmon reset /dev/ttyUSB0
  portmon reset /dev/ttyUSB0 --delay 250ms
  sudo portmon reset /dev/ttyUSB0 --usb`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		usbLevel, _ := cmd.Flags().GetBool("usb")

		if usbLevel {
			runUSBReset(portPath)
			return
		}

		delay, _ := cmd.Flags().GetDuration("delay")
		if err := runLineReset(portPath, delay); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Device reset successfully")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Duration("delay", 100*time.Millisecond, "Hold time between the two reset phases")
	resetCmd.Flags().Bool("usb", false, "Perform a USB bus-level reset instead of toggling DTR/RTS")
}

// runLineReset opens the port, drives the DTR/RTS sequence once and
// closes it again
func runLineReset(portPath string, delay time.Duration) error {
	cfg, err := portmon.NewConfig(
		portmon.WithBaudRate(viper.GetInt("baud")),
		portmon.WithResetDelay(delay),
	)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := portmon.NewRegistry(cfg, portmon.OpenDevice, logger)
	defer reg.CloseAll()

	if !reg.Open(portPath) {
		return fmt.Errorf("failed to open %s", portPath)
	}

	seq := portmon.NewResetSequencer(reg, portmon.NewScheduler(), cfg.ResetDelay)

	done := make(chan error, 1)
	err = seq.BeginReset(portPath, func(ok bool, errText string) {
		if ok {
			done <- nil
			return
		}
		done <- errors.New(errText)
	})
	if err != nil {
		return fmt.Errorf("reset could not start on %s: %w", portPath, err)
	}

	fmt.Printf("Resetting device on %s (hold %v)\n", portPath, cfg.ResetDelay)
	return <-done
}

func runUSBReset(portPath string) {
	if !portmon.IsUSBResetAvailable() {
		fmt.Fprintln(os.Stderr, "Error: usbreset utility not available")
		fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
		os.Exit(1)
	}

	fmt.Printf("Resetting USB device: %s\n", portPath)
	if err := portmon.ResetUSBDevice(portPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, portmon.ErrUSBInfoNotAvailable) {
			fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
		}
		os.Exit(1)
	}

	fmt.Println("USB device reset successfully")
	fmt.Println("Device will re-enumerate (port path may change)")
	fmt.Println("\nUse 'portmon list --table' to see the updated device list")
}
