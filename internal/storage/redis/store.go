// Package redis stores room snapshots as Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	goredis "github.com/redis/go-redis/v9"
)

type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// New wraps client. Snapshots expire ttl after their last save; zero keeps
// them forever.
func New(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Open connects to addr and checks the connection.
func Open(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

func Key(roomCode string) string {
	return "room:" + roomCode + ":" + storage.SlotGameState
}

func (s *Store) Load(ctx context.Context, roomCode string) (engine.State, error) {
	payload, err := s.client.Get(ctx, Key(roomCode)).Bytes()
	if errors.Is(err, goredis.Nil) {
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
	if err := s.client.Set(ctx, Key(roomCode), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", roomCode, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, roomCode string) error {
	if err := s.client.Del(ctx, Key(roomCode)).Err(); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", roomCode, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
