package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/DoyleJ11/heist-server/internal/engine"
	"github.com/DoyleJ11/heist-server/internal/hub"
	"github.com/DoyleJ11/heist-server/internal/room"
	"github.com/DoyleJ11/heist-server/pkg/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeTimeout = 3 * time.Second
	pingTimeout  = 10 * time.Second
	maxNameLen   = 24

	DefaultPingInterval = 30 * time.Second
)

type Options struct {
	OriginPatterns []string
	Logger         *zap.Logger
	// PingInterval is how often the peer must answer a ping to keep its
	// seat. A quiet but connected player is never dropped.
	PingInterval time.Duration
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(r.URL.Query().Get("code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", zap.String("room", code), zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		userID := userIDFor(r.URL.Query().Get("name"), clientID)
		log := logger.With(zap.String("room", code), zap.String("client", clientID), zap.String("user", userID))

		out := make(chan room.Snapshot, 8)
		if !rm.Send(r.Context(), room.Join{ClientID: clientID, UserID: userID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer rm.Send(context.Background(), room.Leave{ClientID: clientID})

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			// The room stopped sending: we were too slow, left, or it shut down.
			defer conn.Close(websocket.StatusTryAgainLater, "snapshot stream ended")
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						return
					}
					msg := types.ServerMessage{Type: types.MsgStateSnapshot, Version: snap.Version, State: &snap.State}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					err := wsjson.Write(ctx, conn, msg)
					cancel()
					if err != nil {
						log.Debug("write snapshot", zap.Error(err))
					}
				case <-rm.Done():
					return
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Keepalive
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-writeCtx.Done():
					return
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(writeCtx, pingTimeout)
					err := conn.Ping(ctx)
					cancel()
					if err != nil {
						log.Debug("ping", zap.Error(err))
						conn.Close(websocket.StatusPolicyViolation, "ping timeout")
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read", zap.Error(err))
				}
				// room.Leave in defer
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			action, ok := ToAction(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			if !rm.Send(r.Context(), room.FromClient{ClientID: clientID, Action: action}) {
				return
			}
		}
	}
}

// ToAction maps a client frame onto the engine's action set.
func ToAction(m types.ClientMessage) (engine.Action, bool) {
	switch m.Type {
	case types.MsgChat:
		return engine.Chat{Message: m.Message}, true
	case types.MsgStartGame:
		return engine.StartGame{}, true
	case types.MsgReady:
		return engine.Ready{}, true
	case types.MsgDrawVault:
		return engine.DrawVault{}, true
	case types.MsgDrawAlarm:
		return engine.DrawAlarm{}, true
	case types.MsgDrawHandcuff:
		return engine.DrawHandcuff{}, true
	case types.MsgGiveCard:
		return engine.GiveCard{RecipientID: m.RecipientID}, true
	case types.MsgAcknowledgeCard:
		return engine.AcknowledgeCard{}, true
	default:
		// UserEntered / UserExit come from the socket lifecycle, not the client.
		return nil, false
	}
}

// userIDFor uses the requested display name when there is one, else a short
// form of the connection id.
func userIDFor(name, clientID string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return clientID[:8]
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = wsjson.Write(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: msg})
}
