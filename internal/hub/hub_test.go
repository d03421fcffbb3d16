package hub

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/room"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"github.com/DoyleJ11/heist-server/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ask(t *testing.T, h *Hub, msg func(chan *room.Room) HubMsg) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- msg(reply)
	select {
	case r := <-reply:
		return r
	case <-time.After(time.Second):
		t.Fatalf("hub did not reply")
		return nil
	}
}

func view(t *testing.T, r *room.Room) room.View {
	t.Helper()
	reply := make(chan room.View, 1)
	r.Inbox() <- room.GetState{Reply: reply}
	return <-reply
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), Options{})

	r1 := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "ZED123", Reply: reply} })
	r2 := ask(t, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: "ZED123", Reply: reply} })

	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
	assert.Equal(t, "ZED123", r1.Code())

	again := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "ZED123", Reply: reply} })
	assert.Same(t, r1, again)
}

func TestHub_GetUnknownIsNil(t *testing.T) {
	h := NewHub(context.Background(), Options{})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: "NOPE00", Reply: reply} })
	assert.Nil(t, r)

	r = ask(t, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: "NOPE00", Reply: reply} })
	assert.Nil(t, r)
}

func TestHub_EnsureCreatesFreshGame(t *testing.T) {
	h := NewHub(context.Background(), Options{NewEnv: func() engine.Env { return engine.NewEnv(4) }})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: "NEW001", Create: true, Reply: reply} })
	require.NotNil(t, r)

	v := view(t, r)
	assert.Len(t, v.State.VaultDeck, 40)
	assert.Empty(t, v.State.Users)
}

func TestHub_EnsureRevivesSavedRoom(t *testing.T) {
	store := memory.New()
	saved := engine.InitialGame(rand.New(rand.NewPCG(2, 2)), time.UnixMilli(1))
	saved = engine.Apply(saved, engine.ServerAction{User: engine.Sender{ID: "alice"}, Action: engine.UserEntered{}}, engine.NewEnv(2))
	require.NoError(t, store.Save(context.Background(), "OLD001", saved))

	h := NewHub(context.Background(), Options{Store: store})
	r := ask(t, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: "OLD001", Reply: reply} })
	require.NotNil(t, r)

	v := view(t, r)
	assert.Equal(t, "alice", v.State.HostID)
	assert.Equal(t, saved.VaultDeck, v.State.VaultDeck)
}

func TestHub_RemoveStopsRoomAndForgetsSnapshot(t *testing.T) {
	store := memory.New()
	h := NewHub(context.Background(), Options{Store: store})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "GONE01", Reply: reply} })
	out := make(chan room.Snapshot, 4)
	r.Inbox() <- room.Join{ClientID: "c1", UserID: "alice", Outbox: out}
	<-out
	_, err := store.Load(context.Background(), "GONE01")
	require.NoError(t, err)

	h.Inbox() <- RemoveRoom{Code: "GONE01"}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop")
	}
	got := ask(t, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: "GONE01", Reply: reply} })
	assert.Nil(t, got)
	_, err = store.Load(context.Background(), "GONE01")
	assert.Error(t, err)
}

func TestHub_ShutdownStopsRooms(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	r := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "BYE001", Reply: reply} })

	h.Inbox() <- ShutdownHub{}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop")
	}
}

func TestHub_RemoveWaitsForQueuedActions(t *testing.T) {
	store := memory.New()
	h := NewHub(context.Background(), Options{Store: store})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "GONE02", Reply: reply} })
	r.Inbox() <- room.Join{ClientID: "c1", UserID: "alice", Outbox: make(chan room.Snapshot, 1)}
	for i := 0; i < 60; i++ {
		r.Inbox() <- room.FromClient{ClientID: "c1", Action: engine.Chat{Message: "still here"}}
	}
	h.Inbox() <- RemoveRoom{Code: "GONE02"}

	// The hub handles messages in order, so this reply comes after removal.
	got := ask(t, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: "GONE02", Reply: reply} })
	assert.Nil(t, got)
	<-r.Done()

	_, err := store.Load(context.Background(), "GONE02")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHub_IdleAbandonedRoomIsForgotten(t *testing.T) {
	store := memory.New()
	h := NewHub(context.Background(), Options{Store: store, IdleTimeout: 20 * time.Millisecond})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "IDLE01", Reply: reply} })
	out := make(chan room.Snapshot, 4)
	r.Inbox() <- room.Join{ClientID: "c1", UserID: "alice", Outbox: out}
	<-out
	r.Inbox() <- room.Leave{ClientID: "c1"}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("idle room did not stop")
	}
	require.Eventually(t, func() bool {
		_, err := store.Load(context.Background(), "IDLE01")
		return errors.Is(err, storage.ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	got := ask(t, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: "IDLE01", Reply: reply} })
	assert.Nil(t, got)
}

func TestHub_IdleRoomWithUsersKeepsSnapshot(t *testing.T) {
	store := memory.New()
	saved := engine.InitialGame(rand.New(rand.NewPCG(3, 3)), time.UnixMilli(1))
	saved = engine.Apply(saved, engine.ServerAction{User: engine.Sender{ID: "alice"}, Action: engine.UserEntered{}}, engine.NewEnv(3))
	require.NoError(t, store.Save(context.Background(), "KEEP01", saved))

	h := NewHub(context.Background(), Options{Store: store, IdleTimeout: 50 * time.Millisecond})
	r := ask(t, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: "KEEP01", Reply: reply} })
	require.NotNil(t, r)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("idle room did not stop")
	}

	// A stopped room is revived from its snapshot on the next lookup.
	again := ask(t, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: "KEEP01", Reply: reply} })
	require.NotNil(t, again)
	assert.NotSame(t, r, again)
	assert.Equal(t, "alice", view(t, again).State.HostID)
}

func TestHub_DoneAfterRoomsSaved(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx, Options{Store: store})

	r := ask(t, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: "LAST01", Reply: reply} })
	out := make(chan room.Snapshot, 4)
	r.Inbox() <- room.Join{ClientID: "c1", UserID: "alice", Outbox: out}
	<-out
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}
	select {
	case <-r.Done():
	default:
		t.Fatalf("hub stopped before its room")
	}
	saved, err := store.Load(context.Background(), "LAST01")
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.HostID)
}
