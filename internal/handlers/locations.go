// internal/handlers/locations.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
	"libstatus-board/internal/models"

	"github.com/go-chi/chi/v5"
)

type boardResponse struct {
	Locations   []models.LocationView `json:"locations"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

type statusResponse struct {
	ID     string             `json:"id"`
	Status models.StatusEntry `json:"status"`
}

// ListLocations returns the live board in catalog order.
func (s *Server) ListLocations(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	views, err := s.store.Board(r.Context(), now)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	commonerrors.WriteJSON(w, http.StatusOK, boardResponse{Locations: views, GeneratedAt: now})
}

// UpdateLocationStatus records a busyness/noise report.
func (s *Server) UpdateLocationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "locationID")

	var update models.StatusUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&update); err != nil {
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	entry, err := s.store.Update(r.Context(), id, update)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	commonerrors.WriteJSON(w, http.StatusOK, statusResponse{ID: id, Status: entry})
}

// StreamLocations pushes every accepted report as a server-sent event
// until the client goes away.
func (s *Server) StreamLocations(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errors.HandleHTTPError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	updates, err := s.store.Subscribe(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for update := range updates {
		payload, err := json.Marshal(update)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
