package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/indieinfra/capture/config"
	storageutil "github.com/indieinfra/capture/storage/util"
)

// SQLStore persists sessions so identifiers survive restarts and replicas.
type SQLStore struct {
	db          *sql.DB
	table       string
	placeholder storageutil.PlaceholderStyle
	now         func() time.Time
}

func NewSQLStore(cfg *config.SQLBackend) (*SQLStore, error) {
	store, err := newSQLStoreWithDB(cfg, nil)
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

func newSQLStoreWithDB(cfg *config.SQLBackend, db *sql.DB) (*SQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session sql config is nil")
	}

	placeholder, err := storageutil.DetectPlaceholderStyle(cfg.Driver)
	if err != nil {
		return nil, err
	}

	return &SQLStore{
		db:          db,
		table:       storageutil.DeriveTableName(cfg.TablePrefix, "sessions"),
		placeholder: placeholder,
		now:         time.Now,
	}, nil
}

func (ss *SQLStore) initSchema(ctx context.Context) error {
	_, err := ss.db.ExecContext(ctx, ss.schemaQuery())
	return err
}

func (ss *SQLStore) schemaQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
session_id VARCHAR(64) PRIMARY KEY,
user_id VARCHAR(64) NOT NULL,
expires_at TIMESTAMP NULL
)`, ss.table)
}

func (ss *SQLStore) selectQuery() string {
	return fmt.Sprintf("SELECT user_id, expires_at FROM %s WHERE session_id = %s", ss.table, ss.placeholder.For(1))
}

func (ss *SQLStore) insertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (session_id, user_id, expires_at) VALUES (%s)", ss.table, ss.placeholder.Placeholders(3))
}

func (ss *SQLStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	var (
		userID    string
		expiresAt sql.NullTime
	)

	err := ss.db.QueryRowContext(ctx, ss.selectQuery(), id).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	s := &Session{ID: id, UserID: userID}
	if expiresAt.Valid {
		if !ss.now().Before(expiresAt.Time) {
			return nil, false, nil
		}
		s.ExpiresAt = expiresAt.Time
	}

	return s, true, nil
}

func (ss *SQLStore) Save(ctx context.Context, s *Session) error {
	var expires any
	if !s.ExpiresAt.IsZero() {
		expires = s.ExpiresAt.UTC()
	}

	_, err := ss.db.ExecContext(ctx, ss.insertQuery(), s.ID, s.UserID, expires)
	return err
}

func (ss *SQLStore) Close() error {
	if ss.db == nil {
		return nil
	}

	return ss.db.Close()
}
