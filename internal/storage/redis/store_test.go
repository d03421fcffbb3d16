package redis

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func sampleState() engine.State {
	s := engine.InitialGame(rand.New(rand.NewPCG(5, 5)), time.UnixMilli(1000))
	return engine.Apply(s, engine.ServerAction{User: engine.Sender{ID: "alice", Color: "#e6194b"}, Action: engine.UserEntered{}}, engine.NewEnv(5))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "room:ABC123:gameState", Key("ABC123"))
}

func TestStore_RoundTrip(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()
	want := sampleState()

	_, err := s.Load(ctx, "ROOM01")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Save(ctx, "ROOM01", want))
	assert.True(t, mr.Exists(Key("ROOM01")))

	got, err := s.Load(ctx, "ROOM01")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete(ctx, "ROOM01"))
	_, err = s.Load(ctx, "ROOM01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, s.Save(ctx, "ROOM02", first))
	second := engine.Apply(first, engine.ServerAction{User: engine.Sender{ID: "bob"}, Action: engine.UserEntered{}}, engine.NewEnv(6))
	require.NoError(t, s.Save(ctx, "ROOM02", second))

	got, err := s.Load(ctx, "ROOM02")
	require.NoError(t, err)
	assert.Len(t, got.Users, 2)
}

func TestStore_SnapshotsExpire(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "ROOM03", sampleState()))
	assert.Equal(t, time.Hour, mr.TTL(Key("ROOM03")))

	mr.FastForward(2 * time.Hour)
	_, err := s.Load(ctx, "ROOM03")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Open(ctx, addr, 0)
	assert.Error(t, err)
}
