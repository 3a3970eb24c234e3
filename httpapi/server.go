// Package httpapi is the driving HTTP adapter: it decodes request
// parameters, invokes the aggregation engine, and encodes typed results or
// mapped error statuses as JSON.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/shelfstats/shelfstats-go/analytics"
)

// Server routes requests to the aggregation engine.
type Server struct {
	engine analytics.Engine
	logger *slog.Logger
}

// New creates a Server wired to the given engine. A nil logger disables
// request logging.
func New(engine analytics.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{engine: engine, logger: logger}
}

// Handler returns the root http.Handler for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("GET /books/most-borrowed", s.handleMostBorrowedBooks)
	mux.HandleFunc("GET /books/{id}/availability", s.handleBookAvailability)
	mux.HandleFunc("GET /books/{id}/co-borrowed", s.handleCoBorrowedBooks)
	mux.HandleFunc("GET /books/{id}/read-rate", s.handleReadRate)
	mux.HandleFunc("GET /users/top-borrowers", s.handleTopBorrowers)
	mux.HandleFunc("GET /users/{id}/borrowed-books", s.handleUserBorrowedBooks)

	return withRequestID(s.withRequestLogging(mux))
}
