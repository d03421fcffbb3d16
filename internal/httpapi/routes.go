package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/heist-server/internal/hub"
	"github.com/DoyleJ11/heist-server/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	OriginPatterns []string
	Logger         *zap.Logger
	PingInterval   time.Duration
}

func SetupRoutes(h *hub.Hub, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Post("/rooms", CreateRoom(h, log))
	r.Get("/rooms/{code}", GetRoom(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, ws.Options{
		OriginPatterns: opts.OriginPatterns,
		Logger:         log,
		PingInterval:   opts.PingInterval,
	}))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
