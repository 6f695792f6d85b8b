/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portmon",
	Short: "Monitor USB serial devices",
	Long: `portmon watches the USB serial ports on the system, keeps a
connection open to every attached device, and streams their log output.

Ports are discovered automatically: plugging a device in opens it,
unplugging it closes the session. The monitor command provides a full
terminal UI with per-port log buffers, ESP-IDF log highlighting and
device reboot over DTR/RTS.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.portmon.yaml)")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "Baud rate for opened ports")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for diagnostic log files (default: stderr)")

	_ = viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	_ = viper.BindPFlag("log-dir", rootCmd.PersistentFlags().Lookup("log-dir"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".portmon")
	}

	viper.SetEnvPrefix("PORTMON")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
