package types

import "github.com/DoyleJ11/heist-server/internal/engine"

// Server -> Client
// StateSnapshot: the whole game state after every processed action.
// Clients replace their copy wholesale.
//   version: number, increments once per processed action
//   state: users, hostId, phase, currentPlayer, pendingCard*, decks, log
//
// Error: a frame the server could not turn into an action.
//   error: string

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ServerMessage struct {
	Type    string        `json:"type"` // "StateSnapshot" | "Error"
	Version int           `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
}
