// Package database carries the embedded schema migrations for the local
// Postgres store and a thin wrapper around golang-migrate to run them.
package database

import (
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5 scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies or reverts the embedded schema migrations.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

// NewFromConnectionString builds a Migrator over the embedded migrations,
// targeting the database named by a postgres:// connection string.
func NewFromConnectionString(connString string) (Migrator, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, pgx5URL(connString))
}

// pgx5URL swaps the connection string scheme for the one the migration
// driver registers under.
func pgx5URL(connString string) string {
	if rest, ok := strings.CutPrefix(connString, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return connString
}
