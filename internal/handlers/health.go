// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	commonerrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready checks the status store connection.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		commonerrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ready.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
		commonerrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	commonerrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
