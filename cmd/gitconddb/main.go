package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel   string
	format     string
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gitconddb",
		Short: "gitconddb - read-only conditions database resolver",
		Long:  "A CLI for resolving time-indexed conditions payloads and their validity intervals.",
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "verbose", "domain logger level: debug, verbose, quiet, nothing")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (optional, flags override)")

	rootCmd.AddCommand(
		getCmd(),
		boundariesCmd(),
		commitTimeCmd(),
		dumpCmd(),
		metricsServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
