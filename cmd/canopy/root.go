package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy is a hierarchical state tree engine for game loops",
	Long:  `Canopy drives a tree of states and their attached systems through a deterministic update loop, with single-slot deferred transitions and exit/enter cascades along the tree.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing tree descriptions")
	rootCmd.PersistentFlags().String("tree", "", "Name of the tree description to load")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func createLogger(cmd *cobra.Command) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}
