/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"fmt"
	"hash/crc32"
	"os"

	"github.com/spf13/cobra"
)

// crcCmd represents the crc command
var crcCmd = &cobra.Command{
	Use:   "crc <file>",
	Short: "Compute the CRC32 checksum of a firmware file",
	Long: `Compute the CRC32 checksum (IEEE polynomial) of a file.

Useful for verifying a firmware image against the checksum a device
prints on its serial console after flashing.

Example usage:
  portmon crc firmware.bin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}

		checksum := crc32.ChecksumIEEE(data)
		fmt.Printf("File: %s\n", path)
		fmt.Printf("Size: %.2f KB\n", float64(len(data))/1024.0)
		fmt.Printf("CRC32: 0x%08X\n", checksum)
	},
}

func init() {
	rootCmd.AddCommand(crcCmd)
}
