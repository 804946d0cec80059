package app

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/medibook/share-engine/database"
	"github.com/medibook/share-engine/pkg/logger"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert database migrations",
	Long: `Revert schema migrations on the local store database.

Reverting migrations drops tables and loses data. Without --num-steps the
entire schema is removed.`,
	RunE: runMigrateDown,
}

func init() {
	migrateDownCmd.Flags().UintP("num-steps", "n", 0, "Number of migrations to revert (0 = all)")
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	connString, err := loadDatabaseConnString(cmd)
	if err != nil {
		return err
	}

	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if steps > math.MaxInt {
		return fmt.Errorf("num-steps %d is out of range", steps)
	}

	skipPrompt, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if !skipPrompt && !confirm(revertPrompt(steps)) {
		return errors.New("migration cancelled by user")
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if steps == 0 {
		logger.Warn("Reverting all migrations, the schema will be removed")
		err = m.Down()
	} else {
		logger.Infof("Reverting %d migration(s)", steps)
		err = m.Steps(-int(steps)) // #nosec G115 -- range checked above
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Nothing to revert, database is at the oldest version")
		return nil
	case err != nil:
		return fmt.Errorf("migration failed: %w", err)
	}

	reportSchemaVersion(m, steps == 0)
	return nil
}

func revertPrompt(steps uint) string {
	if steps == 0 {
		return "This reverts ALL migrations and destroys all local data. Continue?"
	}
	return fmt.Sprintf("This reverts %d migration(s) and may lose data. Continue?", steps)
}

// reportSchemaVersion logs where the schema landed. After a full down there is
// no version row left, which is expected rather than an error.
func reportSchemaVersion(m database.Migrator, fullDown bool) {
	version, dirty, err := m.Version()
	if err != nil {
		if fullDown {
			logger.Info("Schema removed")
		} else {
			logger.Warnf("Failed to read schema version: %v", err)
		}
		return
	}

	if dirty {
		logger.Warnf("Schema at version %d but dirty, manual intervention may be required", version)
		return
	}
	logger.Infof("Schema at version %d", version)
}
