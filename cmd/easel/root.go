package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel edits documents with uploadable, resizable media",
	Long: `Easel hosts editing sessions over a schema-checked document tree.
Files dropped into a session become media placeholders that resolve when their
upload finishes, and media can be resized by dragging a handle.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "easel.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level to stderr")
}
