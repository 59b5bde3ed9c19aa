package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/storage/records/migrations"
	storageutil "github.com/indieinfra/capture/storage/util"
)

// migratedTable is the table the embedded migrations create.
const migratedTable = "capture_uploads"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations to the configured database.
func Migrate(ctx context.Context, cfg *config.SQLBackend) error {
	if cfg == nil {
		return fmt.Errorf("records sql config is nil")
	}

	driverName, err := storageutil.ResolveSQLDriverName(cfg.Driver)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return RunMigrations(ctx, db, cfg)
}

// RunMigrations runs the embedded migrations against an open connection.
func RunMigrations(ctx context.Context, db *sql.DB, cfg *config.SQLBackend) error {
	if table := storageutil.DeriveTableName(cfg.TablePrefix, "uploads"); table != migratedTable {
		return fmt.Errorf("migrations manage %s, not %s; drop table_prefix or let the server create the table", migratedTable, table)
	}

	driverName, err := storageutil.ResolveSQLDriverName(cfg.Driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return err
	}

	return gooseUpContext(ctx, db, ".")
}
