package hub

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/room"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// EnsureRoom returns the live room, reviving it from its saved snapshot if
// it isn't running. With Create set, an unknown code gets a fresh room;
// otherwise the reply is nil.
type EnsureRoom struct {
	Code   string
	Create bool
	Reply  chan *room.Room
}

// RemoveRoom stops the room and then deletes its snapshot.
type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

// roomIdle is sent by a room that stopped itself for lack of clients.
type roomIdle struct {
	room      *room.Room
	abandoned bool
}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}
func (roomIdle) isHubMsg()    {}

type Options struct {
	Store          storage.Store // nil keeps rooms in memory only
	Logger         *zap.Logger
	PersistTimeout time.Duration
	IdleTimeout    time.Duration     // zero keeps empty rooms running
	NewEnv         func() engine.Env // per-room randomness and clock
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   Options
	log    *zap.Logger
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 2 * time.Second
	}
	if opts.NewEnv == nil {
		opts.NewEnv = seededEnv
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Logger,
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after the hub and every room it started have stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if r := h.live(msg.Code); r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.start(msg.Code, nil)

			case GetRoom:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureRoom:
				if r := h.live(msg.Code); r != nil {
					msg.Reply <- r
					break
				}
				saved, err := h.restore(msg.Code)
				switch {
				case err == nil:
					msg.Reply <- h.start(msg.Code, saved)
				case errors.Is(err, storage.ErrNotFound) && msg.Create:
					msg.Reply <- h.start(msg.Code, nil)
				default:
					msg.Reply <- nil
				}

			case RemoveRoom:
				if r := h.rooms[msg.Code]; r != nil {
					r.Send(h.ctx, room.Shutdown{})
					<-r.Done()
					delete(h.rooms, msg.Code)
				}
				h.forget(msg.Code)

			case roomIdle:
				code := msg.room.Code()
				current := h.rooms[code]
				if current == msg.room {
					delete(h.rooms, code)
					current = nil
				}
				h.log.Info("room stopped idle", zap.String("room", code), zap.Bool("abandoned", msg.abandoned))
				// A replacement may already have been restored from the snapshot.
				if msg.abandoned && current == nil {
					h.forget(code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) start(code string, state *engine.State) *room.Room {
	env := h.opts.NewEnv()
	initial := engine.InitialGame(env.Rand, env.Now())
	if state != nil {
		initial = *state
	}
	r := room.NewRoom(h.ctx, initial, room.Options{
		Code:           code,
		Store:          h.opts.Store,
		Logger:         h.log,
		Env:            env,
		PersistTimeout: h.opts.PersistTimeout,
		IdleTimeout:    h.opts.IdleTimeout,
		OnIdle:         h.idle,
	})
	h.rooms[code] = r
	h.log.Info("room started", zap.String("room", code), zap.Bool("restored", state != nil))
	return r
}

// live returns the running room for code, dropping one that has stopped.
func (h *Hub) live(code string) *room.Room {
	r := h.rooms[code]
	if r == nil {
		return nil
	}
	select {
	case <-r.Done():
		delete(h.rooms, code)
		return nil
	default:
		return r
	}
}

func (h *Hub) idle(r *room.Room, abandoned bool) {
	go func() {
		select {
		case h.inbox <- roomIdle{room: r, abandoned: abandoned}:
		case <-h.ctx.Done():
		}
	}()
}

func (h *Hub) restore(code string) (*engine.State, error) {
	if h.opts.Store == nil {
		return nil, storage.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(h.ctx, h.opts.PersistTimeout)
	defer cancel()
	state, err := h.opts.Store.Load(ctx, code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.log.Error("restore room", zap.String("room", code), zap.Error(err))
		}
		return nil, err
	}
	return &state, nil
}

func (h *Hub) forget(code string) {
	if h.opts.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, h.opts.PersistTimeout)
	defer cancel()
	if err := h.opts.Store.Delete(ctx, code); err != nil {
		h.log.Error("delete room snapshot", zap.String("room", code), zap.Error(err))
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Send(h.ctx, room.Shutdown{})
	}
	for _, r := range h.rooms {
		<-r.Done()
	}
	clear(h.rooms)
	h.cancel()
}

func seededEnv() engine.Env {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return engine.NewEnv(uint64(time.Now().UnixNano()))
	}
	return engine.NewEnv(binary.LittleEndian.Uint64(b[:]))
}
