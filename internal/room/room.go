package room

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/storage"
	"go.uber.org/zap"
)

type Msg interface{ isRoomMsg() }

type FromClient struct {
	ClientID string
	Action   engine.Action
}

func (FromClient) isRoomMsg() {}

type Join struct {
	ClientID string
	UserID   string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

// Palette is handed out to users in join order.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#42d4f4", "#f032e6",
}

type Options struct {
	Code           string
	Store          storage.Store // nil disables persistence
	Logger         *zap.Logger
	Env            engine.Env
	PersistTimeout time.Duration

	// IdleTimeout stops a room that has had no clients this long. Zero
	// keeps it running until Shutdown.
	IdleTimeout time.Duration
	// OnIdle is called from the room goroutine after an idle stop.
	// abandoned is true when no user is left in the game.
	OnIdle func(r *Room, abandoned bool)
}

// Room owns one game state. Every change goes through its inbox, so actions
// for a room are applied strictly one after another.
type Room struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	members map[string]engine.Sender // by client id, until Leave
	outbox  map[string]chan Snapshot // by client id, until Leave or dropped
	joins   int
	env     engine.Env
	store   storage.Store
	timeout time.Duration
	log     *zap.Logger
	idle    *time.Timer
	idleFor time.Duration
	onIdle  func(*Room, bool)
	stopped chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, initial engine.State, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.PersistTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	r := &Room{
		code:    opts.Code,
		inbox:   make(chan Msg, 64),
		state:   initial,
		members: make(map[string]engine.Sender),
		outbox:  make(map[string]chan Snapshot),
		env:     opts.Env,
		store:   opts.Store,
		timeout: timeout,
		log:     logger.With(zap.String("room", opts.Code)),
		idleFor: opts.IdleTimeout,
		onIdle:  opts.OnIdle,
		stopped: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	if r.idleFor > 0 {
		r.idle = time.NewTimer(r.idleFor)
	}

	go r.loop()
	return r
}

func (r *Room) Code() string { return r.code }

// Inbox exposes the room's message queue to the transport and to tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room goroutine has exited. Every action it
// accepted has been applied and saved by then.
func (r *Room) Done() <-chan struct{} { return r.stopped }

// Send queues m unless the room has shut down or ctx ends first.
func (r *Room) Send(ctx context.Context, m Msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			close(r.stopped)
			return

		case <-r.idleC():
			if len(r.members) > 0 {
				break
			}
			abandoned := len(r.state.Users) == 0
			r.log.Info("room idle, stopping", zap.Bool("abandoned", abandoned))
			r.shutdown()
			close(r.stopped)
			if r.onIdle != nil {
				r.onIdle(r, abandoned)
			}
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.stopIdle()
				r.outbox[msg.ClientID] = msg.Outbox
				r.log.Info("client joined", zap.String("client", msg.ClientID), zap.String("user", msg.UserID))
				if sender, ok := r.memberFor(msg.UserID); ok {
					// Already seated from another connection: share the seat.
					r.members[msg.ClientID] = sender
					select {
					case msg.Outbox <- Snapshot{Version: r.version, State: r.state}:
					default:
					}
					break
				}
				sender := engine.Sender{ID: msg.UserID, Color: Palette[r.joins%len(Palette)]}
				r.joins++
				r.members[msg.ClientID] = sender
				r.apply(sender, engine.UserEntered{})

			case Leave:
				sender, ok := r.members[msg.ClientID]
				if !ok {
					break
				}
				delete(r.members, msg.ClientID)
				if ch, ok := r.outbox[msg.ClientID]; ok {
					close(ch)
					delete(r.outbox, msg.ClientID)
				}
				r.log.Info("client left", zap.String("client", msg.ClientID), zap.String("user", sender.ID))
				if len(r.members) == 0 {
					r.startIdle()
				}
				if r.hasMember(sender.ID) {
					// Another connection still plays as this user.
					break
				}
				switch {
				case sender.ID == r.state.PendingCardDrawnBy || sender.ID == r.state.PendingCardRecipient:
					r.log.Warn("user left mid-handoff; round is stalled",
						zap.String("user", sender.ID),
						zap.String("drawn_by", r.state.PendingCardDrawnBy),
						zap.String("recipient", r.state.PendingCardRecipient))
				case sender.ID == r.state.CurrentPlayer:
					// Nobody else may draw, so the turn never moves on.
					r.log.Warn("current player left; round is stalled",
						zap.String("user", sender.ID),
						zap.String("phase", string(r.state.Phase)))
				}
				r.apply(sender, engine.UserExit{})

			case FromClient:
				sender, ok := r.members[msg.ClientID]
				if !ok {
					r.log.Warn("action from unknown client", zap.String("client", msg.ClientID))
					break
				}
				r.apply(sender, msg.Action)

			case GetState:
				// reflect internal state without data races
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.outbox),
					State:      r.state,
				}

			case Shutdown:
				r.shutdown()
				close(r.stopped)
				return
			}
		}
	}
}

func (r *Room) apply(sender engine.Sender, action engine.Action) {
	r.state = engine.Apply(r.state, engine.ServerAction{User: sender, Action: action}, r.env)
	r.version++
	r.log.Debug("applied action",
		zap.String("user", sender.ID),
		zap.String("action", fmt.Sprintf("%T", action)),
		zap.String("phase", string(r.state.Phase)),
		zap.Int("version", r.version))

	r.persist()
	r.broadcast(Snapshot{Version: r.version, State: r.state})
}

func (r *Room) persist() {
	if r.store == nil {
		return
	}
	// A save already underway finishes even if the room is being stopped.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), r.timeout)
	defer cancel()
	if err := r.store.Save(ctx, r.code, r.state); err != nil {
		r.log.Error("persist snapshot", zap.Int("version", r.version), zap.Error(err))
	}
}

func (r *Room) memberFor(userID string) (engine.Sender, bool) {
	for _, m := range r.members {
		if m.ID == userID {
			return m, true
		}
	}
	return engine.Sender{}, false
}

func (r *Room) hasMember(userID string) bool {
	_, ok := r.memberFor(userID)
	return ok
}

func (r *Room) idleC() <-chan time.Time {
	if r.idle == nil {
		return nil
	}
	return r.idle.C
}

func (r *Room) startIdle() {
	if r.idle != nil {
		r.idle.Reset(r.idleFor)
	}
}

func (r *Room) stopIdle() {
	if r.idle != nil {
		r.idle.Stop()
	}
}

func (r *Room) shutdown() {
	r.stopIdle()
	for id, ch := range r.outbox {
		close(ch) // Tell client no more snapshots
		delete(r.outbox, id)
	}
	clear(r.members)
	r.cancel()
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.outbox {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			r.log.Warn("dropping slow client", zap.String("client", id))
			close(ch)
			delete(r.outbox, id)
		}
	}
}
