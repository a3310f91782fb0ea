package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirtySchema means an earlier migration stopped halfway and the schema
// has to be repaired by hand (migrate force) before the service can start.
var ErrDirtySchema = errors.New("schema is dirty")

// MigrateSchema brings the ledger schema in dir up to the latest version.
func MigrateSchema(logger *slog.Logger, databaseURL, dir string) error {
	if dir == "" {
		return errors.New("migrations directory is required")
	}
	if databaseURL == "" {
		return errors.New("database URL is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations directory %q: %w", dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations in %s: %w", abs, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	from, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate schema from version %d: %w", from, err)
	}
	to, err := schemaVersion(m)
	if err != nil {
		return err
	}

	if from == to {
		logger.Info("Ledger schema up to date", "version", to)
	} else {
		logger.Info("Ledger schema migrated", "from_version", from, "to_version", to)
	}
	return nil
}

// schemaVersion is 0 on an empty database.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return version, nil
}
