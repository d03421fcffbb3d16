// Package storage persists room snapshots so a room survives a restart.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/heist-server/internal/engine"
)

// SlotGameState is the slot every room's game state is saved under.
const SlotGameState = "gameState"

var ErrNotFound = errors.New("snapshot not found")

// Store saves and loads the latest game state per room code.
type Store interface {
	Load(ctx context.Context, roomCode string) (engine.State, error)
	Save(ctx context.Context, roomCode string, state engine.State) error
	Delete(ctx context.Context, roomCode string) error
	Close() error
}

// Encode serializes a state the way every backend stores it.
func Encode(state engine.State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}
	return payload, nil
}

func Decode(payload []byte) (engine.State, error) {
	var state engine.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return engine.State{}, fmt.Errorf("decode game state: %w", err)
	}
	return state, nil
}
