package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/subcommands"

	"equity/internal/config"
	"equity/internal/database"
	"equity/internal/logger"
	"equity/internal/tokenstore"
)

var errSQLiteUnsupported = errors.New("versioned migrations only apply to postgres; sqlite is auto-migrated by `migrate up`")

// withMigrate loads configuration and hands fn a migrate instance for the
// configured PostgreSQL database.
func withMigrate(fn func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return errSQLiteUnsupported
	}

	m, err := migrate.New(cfg.Database.MigrationsPath, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	return fn(m)
}

func exitStatus(err error) subcommands.ExitStatus {
	if err != nil {
		logger.Get().Errorf("Migration error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- upCmd ---

type upCmd struct{}

func (*upCmd) Name() string     { return "up" }
func (*upCmd) Synopsis() string { return "apply every pending migration" }
func (*upCmd) Usage() string {
	return `migrate up

  Brings the schema to the latest version. PostgreSQL applies the SQL files
  under MIGRATIONS_PATH; SQLite is auto-migrated from the models.
`
}
func (*upCmd) SetFlags(*flag.FlagSet) {}

func (*upCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		return exitStatus(fmt.Errorf("failed to load config: %w", err))
	}

	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return exitStatus(err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return exitStatus(err)
	}
	logger.Get().Info("Migrations applied successfully")
	return subcommands.ExitSuccess
}

// --- downCmd ---

type downCmd struct{}

func (*downCmd) Name() string     { return "down" }
func (*downCmd) Synopsis() string { return "roll back the last N migrations (default 1)" }
func (*downCmd) Usage() string {
	return `migrate down [N]

  Rolls back N migrations, one when N is omitted.
`
}
func (*downCmd) SetFlags(*flag.FlagSet) {}

func (*downCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	steps := 1
	if f.NArg() > 0 {
		n, err := strconv.Atoi(f.Arg(0))
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "invalid step count %q\n", f.Arg(0))
			return subcommands.ExitUsageError
		}
		steps = n
	}

	return exitStatus(withMigrate(func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)
		return nil
	}))
}

// --- versionCmd ---

type versionCmd struct{}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print the current schema version" }
func (*versionCmd) Usage() string {
	return `migrate version
`
}
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return exitStatus(withMigrate(func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Get().Info("No migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
		return nil
	}))
}

// --- purgeCmd ---

type purgeCmd struct{}

func (*purgeCmd) Name() string     { return "purge-revoked" }
func (*purgeCmd) Synopsis() string { return "delete revoked-token rows whose tokens have expired" }
func (*purgeCmd) Usage() string {
	return `migrate purge-revoked

  Removes database revocation entries that no longer matter because the
  tokens they refer to have expired. Redis entries expire on their own.
`
}
func (*purgeCmd) SetFlags(*flag.FlagSet) {}

func (*purgeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		return exitStatus(fmt.Errorf("failed to load config: %w", err))
	}

	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return exitStatus(err)
	}
	defer dbManager.Close()

	n, err := tokenstore.NewDBStore(dbManager.DB()).Purge(ctx)
	if err != nil {
		return exitStatus(fmt.Errorf("purge failed: %w", err))
	}
	logger.Get().Infof("Purged %d revoked token(s)", n)
	return subcommands.ExitSuccess
}
