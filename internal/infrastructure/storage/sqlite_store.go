package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore keeps the persisted state in a SQLite key-value table.
type SQLiteStore struct {
	db     *sql.DB
	logger port.Logger
}

// NewSQLiteStore opens the database at dbPath with WAL mode enabled.
func NewSQLiteStore(dbPath string, logger port.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (entity.PersistedState, error) {
	raw := make(map[string][]byte, len(sectionKeys))
	for _, key := range sectionKeys {
		value, err := s.getMetadata(ctx, key)
		if err != nil {
			return entity.PersistedState{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if value != "" {
			raw[key] = []byte(value)
		}
	}
	return decodeState(raw, s.logger), nil
}

func (s *SQLiteStore) Save(ctx context.Context, state entity.PersistedState) error {
	sections, err := encodeState(state)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := time.Now().UnixMilli()
	for key, value := range sections {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
			key, string(value), ts,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) putRaw(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
		key, string(value), time.Now().UnixMilli(),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
