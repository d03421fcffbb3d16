// Package memory keeps room snapshots in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
)

type key struct {
	room string
	slot string
}

// Store holds encoded snapshots, so loads never alias the caller's state.
type Store struct {
	mu   sync.RWMutex
	data map[key][]byte
}

func New() *Store {
	return &Store{data: make(map[key][]byte)}
}

func (s *Store) Load(ctx context.Context, roomCode string) (engine.State, error) {
	if err := ctx.Err(); err != nil {
		return engine.State{}, err
	}
	s.mu.RLock()
	payload, ok := s.data[key{roomCode, storage.SlotGameState}]
	s.mu.RUnlock()
	if !ok {
		return engine.State{}, storage.ErrNotFound
	}
	return storage.Decode(payload)
}

func (s *Store) Save(ctx context.Context, roomCode string, state engine.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := storage.Encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key{roomCode, storage.SlotGameState}] = payload
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, roomCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, key{roomCode, storage.SlotGameState})
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
