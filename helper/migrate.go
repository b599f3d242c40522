package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"resort/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const migrationSource = "file://migrations/postgres"

func open(cfg *config.Config) (*migrate.Migrate, error) {
	pg := cfg.DB.Postgres

	extra := url.Values{}
	if pg.MigrationTable != "" {
		extra.Set("x-migrations-table", pg.MigrationTable)
	}

	mig, err := migrate.New(migrationSource, pg.Write.DSN(pg.Prefix, extra))
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

// run opens a migrator, applies step and reports the resulting schema version.
func run(cfg *config.Config, action string, step func(*migrate.Migrate) error) error {
	mig, err := open(cfg)
	if err != nil {
		return err
	}
	defer mig.Close()

	if err := step(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migration %s: %w", action, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Str("action", action).Uint("version", version).Bool("dirty", dirty).Msg("Database migration finished")

	return nil
}

func Up(cfg *config.Config) error {
	return run(cfg, "up", (*migrate.Migrate).Up)
}

func StepUp(cfg *config.Config) error {
	return run(cfg, "step-up", func(m *migrate.Migrate) error { return m.Steps(1) })
}

func Down(cfg *config.Config) error {
	return run(cfg, "down", func(m *migrate.Migrate) error { return m.Steps(-1) })
}

func Drop(cfg *config.Config) error {
	return run(cfg, "drop", (*migrate.Migrate).Down)
}

// Force marks version as applied without running it, clearing a dirty state.
func Force(cfg *config.Config, version int) error {
	return run(cfg, "force", func(m *migrate.Migrate) error { return m.Force(version) })
}

// Version logs the current schema version.
func Version(cfg *config.Config) error {
	return run(cfg, "version", func(*migrate.Migrate) error { return nil })
}
