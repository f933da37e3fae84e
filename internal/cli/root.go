// Package cli implements the command-line interface for the EcoTrace client.
package cli

import (
	"fmt"
	"os"

	"github.com/ecotrace/ecotrace-go/internal/core"
	"github.com/spf13/cobra"
)

// Global flags
var (
	verbose     bool
	environment string
	backend     string
	dataDir     string
	redisAddr   string
	raw         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ecotrace",
	Short:   "EcoTrace CLI – track eco-friendly habits",
	Long:    `A command-line client for the EcoTrace habit tracker: authentication, habit tracking, challenges, and offline-capable data sync.`,
	Version: core.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&environment, "env", "", "Environment profile (development/production)")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "file", "Storage backend (file/sqlite/redis/memory)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory for file and sqlite backends")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address for the redis backend")
	rootCmd.PersistentFlags().BoolVar(&raw, "raw", false, "Emit raw JSON instead of tables")
}
