package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/indieinfra/capture/config"
	storageutil "github.com/indieinfra/capture/storage/util"
)

type SQLRecordStore struct {
	db          *sql.DB
	table       string
	placeholder storageutil.PlaceholderStyle
}

func NewSQLRecordStore(cfg *config.SQLBackend) (*SQLRecordStore, error) {
	store, err := newSQLRecordStoreWithDB(cfg, nil)
	if err != nil {
		return nil, err
	}

	driverName, err := storageutil.ResolveSQLDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, err
	}

	store.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func newSQLRecordStoreWithDB(cfg *config.SQLBackend, db *sql.DB) (*SQLRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("records sql config is nil")
	}

	placeholder, err := storageutil.DetectPlaceholderStyle(cfg.Driver)
	if err != nil {
		return nil, err
	}

	return &SQLRecordStore{
		db:          db,
		table:       storageutil.DeriveTableName(cfg.TablePrefix, "uploads"),
		placeholder: placeholder,
	}, nil
}

func (rs *SQLRecordStore) initSchema(ctx context.Context) error {
	_, err := rs.db.ExecContext(ctx, rs.schemaQuery())
	return err
}

func (rs *SQLRecordStore) schemaQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
id VARCHAR(36) PRIMARY KEY,
user_id VARCHAR(64) NOT NULL,
photo_url TEXT NULL,
video_url TEXT NULL,
photo_mirror_url TEXT NULL,
video_mirror_url TEXT NULL,
latitude DOUBLE PRECISION NULL,
longitude DOUBLE PRECISION NULL,
location_url TEXT NULL,
location_mirror_url TEXT NULL,
created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, rs.table)
}

func (rs *SQLRecordStore) insertQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		rs.table,
		strings.Join(columns, ", "),
		rs.placeholder.Placeholders(len(columns)),
	)
}

func (rs *SQLRecordStore) Insert(ctx context.Context, record *Record) error {
	if err := Prepare(record); err != nil {
		return err
	}

	if _, err := rs.db.ExecContext(ctx, rs.insertQuery(), record.values()...); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (rs *SQLRecordStore) Close() error {
	if rs.db == nil {
		return nil
	}

	return rs.db.Close()
}
