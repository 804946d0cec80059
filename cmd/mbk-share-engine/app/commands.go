// Package app provides the entry point for the MediBook share engine daemon.
package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medibook/share-engine/internal/versions"
	"github.com/medibook/share-engine/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "mbk-share-engine",
	DisableAutoGenTag: true,
	Short:             "MediBook record sharing and synchronization engine",
	Long: `MediBook share engine publishes medication record graphs to the shared
record store, manages share grants, and keeps the local template catalog
in sync with upstream changes.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the share engine.
func NewRootCmd() *cobra.Command {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format version info as JSON: %w", err)
			}
			fmt.Println(string(output))
			return nil
		}

		logger.Infow("mbk-share-engine version",
			"version", info.Version,
			"commit", info.Commit,
			"built", info.BuildDate,
			"go", info.GoVersion,
			"platform", info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
