package relay

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qepting91/topgg"
	"github.com/qepting91/topgg/autoposter"
	"github.com/qepting91/topgg/webhook"
)

// NewRouter assembles the relay's HTTP surface: the vote webhook, a local
// stats feed, the dashboard, metrics and a health check. The secret guards
// the stats feed the same way it guards the webhook.
func NewRouter(listener *webhook.Listener, handle *autoposter.Handle, metrics *Metrics, secret, voteLogPath string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Method(http.MethodPost, "/webhook", listener)
	r.Post("/stats", feedHandler(handle, secret))
	r.Get("/dashboard", DashboardHandler(voteLogPath))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

const maxFeedBody = 1 << 20

// feedHandler lets co-located processes hand snapshots to the autoposter
// over HTTP instead of linking the SDK. The relay listens on one address
// for everything, so feeds carry the shared secret like webhook deliveries.
func feedHandler(handle *autoposter.Handle, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(auth), []byte(secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var stats topgg.Stats
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedBody)).Decode(&stats); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if stats.ServerCount == 0 {
			http.Error(w, "server_count is required", http.StatusBadRequest)
			return
		}
		handle.Feed(stats)
		w.WriteHeader(http.StatusAccepted)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
