package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/DoyleJ11/heist-server/internal/hub"
	"github.com/DoyleJ11/heist-server/internal/room"
	"github.com/DoyleJ11/heist-server/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	codeLen      = 6
	codeAttempts = 10
	replyTimeout = 5 * time.Second
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLen)
	for i := 0; i < codeLen; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// findRoom returns the live or saved room for code, or nil.
func findRoom(r *http.Request, h *hub.Hub, code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.Inbox() <- hub.EnsureRoom{Code: code, Reply: reply}:
	case <-r.Context().Done():
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-r.Context().Done():
		return nil
	}
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for attempt := 0; code == "" && attempt < codeAttempts; attempt++ {
			c, err := GenerateCode()
			if err != nil {
				log.Error("generate room code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if findRoom(r, h, c) != nil {
				log.Info("collision on code, regenerating", zap.String("room", c))
				continue
			}
			code = c
		}
		if code == "" {
			http.Error(w, "failed to generate code", http.StatusServiceUnavailable)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.CreateRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// GetRoom returns the room's current snapshot, the same frame a socket
// client receives.
func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		rm := findRoom(r, h, code)
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		reply := make(chan room.View, 1)
		if !rm.Send(r.Context(), room.GetState{Reply: reply}) {
			http.Error(w, "room closed", http.StatusGone)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, types.ServerMessage{Type: types.MsgStateSnapshot, Version: v.Version, State: &v.State})
		case <-time.After(replyTimeout):
			http.Error(w, "room busy", http.StatusServiceUnavailable)
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
