package memory

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	state := engine.InitialGame(rand.New(rand.NewPCG(1, 2)), time.UnixMilli(1000))
	state = engine.Apply(state, engine.ServerAction{User: engine.Sender{ID: "alice"}, Action: engine.UserEntered{}}, engine.NewEnv(1))

	_, err := s.Load(ctx, "ROOM01")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Save(ctx, "ROOM01", state))
	got, err := s.Load(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, state.HostID, got.HostID)
	assert.Equal(t, state.VaultDeck, got.VaultDeck)
	assert.Equal(t, state.Log, got.Log)

	require.NoError(t, s.Delete(ctx, "ROOM01"))
	_, err = s.Load(ctx, "ROOM01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_LoadIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	state := engine.InitialGame(rand.New(rand.NewPCG(1, 2)), time.UnixMilli(1000))
	require.NoError(t, s.Save(ctx, "ROOM01", state))

	got, err := s.Load(ctx, "ROOM01")
	require.NoError(t, err)
	got.VaultDeck[0].Name = "changed"

	again, err := s.Load(ctx, "ROOM01")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", again.VaultDeck[0].Name)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Save(ctx, "ROOM01", engine.State{})
	assert.ErrorIs(t, err, context.Canceled)
}
