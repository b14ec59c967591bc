// Package main es el bot de la cola de levels: run levanta Discord, el
// overlay y el motor; dump e history son de diagnóstico.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	historyLimit int
	historyLevel []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "levelhead-queue-bot",
		Short:         "Levelhead level queue bot for streamers",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runBot,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config.toml path (default: $CONFIG_FILE or XDG)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve the overlay",
		RunE:  runBot,
	})
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newHistoryCmd())
	return rootCmd
}
