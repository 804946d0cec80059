package app

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/medibook/share-engine/internal/config"
)

var errDatabaseNotConfigured = errors.New("database configuration is required")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// loadDatabaseConnString loads the configuration from the command's config
// flag and returns the database connection string.
func loadDatabaseConnString(cmd *cobra.Command) (string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return "", err
	}
	if cfg.Database == nil {
		return "", errDatabaseNotConfigured
	}
	return cfg.Database.GetConnectionString()
}
