/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/portmon"
	"github.com/allbin/portmon/internal/history"
	"github.com/allbin/portmon/internal/logfmt"
	"github.com/allbin/portmon/internal/logger"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture serial output from every attached device to a file",
	Long: `Capture the line output of every USB serial device to a file, headless.

Ports are discovered and opened automatically, the same way the monitor
command tracks them. Each captured line is prefixed with its port so a
multi-device capture stays attributable. Runs continuously until
interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume
captures without overwriting existing data. With --db the lines are
additionally recorded to a SQLite database with their classification
and arrival time.

Example usage:
  portmon capture session.log
  portmon capture session.log --baud 9600
  portmon capture session.log --db session.db`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outputPath := args[0]
		dbPath, _ := cmd.Flags().GetString("db")

		if err := runCapture(outputPath, dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().String("db", "", "Also record lines to a SQLite database at this path")
}

func runCapture(outputPath, dbPath string) error {
	cfg, err := portmon.NewConfig(portmon.WithBaudRate(viper.GetInt("baud")))
	if err != nil {
		return err
	}

	log, logCloser := logger.New("capture", logger.Config{Dir: viper.GetString("log-dir")})
	defer logCloser.Close()

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	var store *history.Store
	if dbPath != "" {
		store, err = history.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
	}

	manager := portmon.NewManager(cfg, log)

	lineCount := int64(0)
	manager.SetSink(func(l portmon.Line) {
		lineCount++
		fmt.Fprintf(file, "%s %s\n", l.Port, l.Text)
		if store != nil {
			level := logfmt.Classify(l.Text)
			if err := store.Append(l.Port, level.String(), logfmt.Clean(l.Text)); err != nil {
				log.Warn("history append failed", "port", l.Port, "err", err)
			}
		}
	})

	// Signal handling for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "Capturing USB serial output to %s\n", outputPath)
	if dbPath != "" {
		fmt.Fprintf(os.Stderr, "Recording lines to %s\n", dbPath)
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()
	manager.Run(ctx)

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d lines written in %v\n", lineCount, duration.Round(time.Millisecond))
	return nil
}
