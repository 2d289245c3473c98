// Package ops provides the operational HTTP surface: health, status and the
// live activity feed.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/store"
)

// Server serves the ops endpoints.
type Server struct {
	conversations *store.Conversations
	journal       store.Journal
	feed          *Broadcaster
	startedAt     time.Time
}

// NewServer creates an ops server.
func NewServer(conversations *store.Conversations, journal store.Journal, feed *Broadcaster) *Server {
	return &Server{
		conversations: conversations,
		journal:       journal,
		feed:          feed,
		startedAt:     time.Now(),
	}
}

// Router builds the chi router for the ops surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Get("/api/status", s.handleStatus)
	r.Get("/ws/feed", s.feed.ServeHTTP)
	return r
}

type statusResponse struct {
	UptimeSeconds       int64                  `json:"uptime_seconds"`
	ActiveConversations int                    `json:"active_conversations"`
	RecentFulfillments  []*domain.JournalEntry `json:"recent_fulfillments"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	recent, err := s.journal.Recent(r.Context(), 20)
	if err != nil {
		slog.Error("failed to read fulfillment journal", "error", err)
		Error(w, http.StatusInternalServerError, "journal unavailable")
		return
	}

	JSON(w, http.StatusOK, statusResponse{
		UptimeSeconds:       int64(time.Since(s.startedAt).Seconds()),
		ActiveConversations: s.conversations.Len(),
		RecentFulfillments:  recent,
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
