// Package postgres stores room snapshots in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type roomSnapshot struct {
	RoomCode  string `gorm:"primaryKey;size:16"`
	Slot      string `gorm:"primaryKey;size:32"`
	Payload   []byte `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (roomSnapshot) TableName() string { return "room_snapshots" }

type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the snapshot table.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&roomSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate room_snapshots: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, roomCode string) (engine.State, error) {
	var row roomSnapshot
	err := s.db.WithContext(ctx).
		Where("room_code = ? AND slot = ?", roomCode, storage.SlotGameState).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.State{}, storage.ErrNotFound
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("load snapshot %s: %w", roomCode, err)
	}
	return storage.Decode(row.Payload)
}

func (s *Store) Save(ctx context.Context, roomCode string, state engine.State) error {
	payload, err := storage.Encode(state)
	if err != nil {
		return err
	}
	row := roomSnapshot{
		RoomCode:  roomCode,
		Slot:      storage.SlotGameState,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	if err := upsert(s.db.WithContext(ctx), &row).Error; err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomCode, err)
	}
	return nil
}

func upsert(db *gorm.DB, row *roomSnapshot) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_code"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(row)
}

func (s *Store) Delete(ctx context.Context, roomCode string) error {
	err := s.db.WithContext(ctx).
		Where("room_code = ? AND slot = ?", roomCode, storage.SlotGameState).
		Delete(&roomSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", roomCode, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
