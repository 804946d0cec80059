package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/medibook/share-engine/database"
	"github.com/medibook/share-engine/pkg/logger"
)

// confirmInput is swapped out by tests.
var confirmInput io.Reader = os.Stdin

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Long: `Apply all pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies all migrations that haven't been run yet.`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	connString, err := loadDatabaseConnString(cmd)
	if err != nil {
		return err
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if !yes && !confirm("About to apply database migrations. Continue?") {
		logger.Info("Migration cancelled by user")
		return nil
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	logger.Info("Applying database migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No pending migrations - database is up to date")
		} else {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Warnf("Unable to get migration version: %v", err)
	} else if dirty {
		logger.Warnf("Database is in a dirty state at version %d", version)
	} else {
		logger.Infof("Migrations applied successfully. Current version: %d", version)
	}

	return nil
}

// confirm prompts the user and reports whether they answered yes.
func confirm(prompt string) bool {
	fmt.Printf("%s (yes/no): ", prompt)
	var response string
	if _, err := fmt.Fscanln(confirmInput, &response); err != nil {
		return false
	}
	return response == "yes" || response == "y"
}
