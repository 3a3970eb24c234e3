package httpapi

import (
	"errors"
	"net/http"

	"github.com/shelfstats/shelfstats-go/analytics"
)

func (s *Server) handleMostBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.engine.MostBorrowedBooks(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleBookAvailability(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	availability, err := s.engine.BookAvailability(r.Context(), bookID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

func (s *Server) handleTopBorrowers(w http.ResponseWriter, r *http.Request) {
	window, err := windowQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	users, err := s.engine.TopBorrowers(r.Context(), window)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleUserBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	window, err := windowQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	books, err := s.engine.UserBorrowedBooks(r.Context(), userID, window)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleCoBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	books, err := s.engine.CoBorrowedBooks(r.Context(), bookID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleReadRate(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rate, err := s.engine.ReadRate(r.Context(), bookID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pagesPerDay": rate})
}

// writeEngineError maps engine failures to protocol statuses: a missing
// entity becomes 404, everything else is propagated as 500.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, analytics.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.logger.ErrorContext(r.Context(), "engine operation failed",
		"error", err.Error(),
		"path", r.URL.Path,
	)
	writeError(w, http.StatusInternalServerError, err)
}
