// Package sqlite stores room snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS room_snapshots (
	room_code  TEXT NOT NULL,
	slot       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (room_code, slot)
)`

type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Load(ctx context.Context, roomCode string) (engine.State, error) {
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM room_snapshots WHERE room_code = ? AND slot = ?`,
		roomCode, storage.SlotGameState,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, storage.ErrNotFound
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("load snapshot %s: %w", roomCode, err)
	}
	return storage.Decode(payload)
}

func (s *Store) Save(ctx context.Context, roomCode string, state engine.State) error {
	payload, err := storage.Encode(state)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO room_snapshots (room_code, slot, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_code, slot) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		roomCode, storage.SlotGameState, payload, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomCode, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, roomCode string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM room_snapshots WHERE room_code = ? AND slot = ?`,
		roomCode, storage.SlotGameState,
	)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", roomCode, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
