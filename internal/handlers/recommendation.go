// internal/handlers/recommendation.go
package handlers

import (
	"encoding/json"
	"net/http"

	commonerrors "libstatus-board/internal/common/errors"
	"libstatus-board/internal/models"
)

const maxRequestBytes = 64 << 10

// Recommendation proxies one recommendation request. The credential for the
// model lives server side only. When liveLocationData is omitted the
// current snapshot is read from the status store.
func (s *Server) Recommendation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		s.errors.HandleHTTPError(w, r, commonerrors.NewMethodNotAllowedError())
		return
	}

	var req models.RecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}
	if req.QuizAnswers == nil {
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError("quizAnswers is required"))
		return
	}

	snapshot := req.LiveLocationData
	if snapshot == nil && s.store != nil {
		live, err := s.store.Snapshot(r.Context())
		if err != nil {
			s.errors.HandleHTTPError(w, r, err)
			return
		}
		snapshot = live
	}

	result := s.recommender.Recommend(r.Context(), req.QuizAnswers, snapshot)
	commonerrors.WriteJSON(w, http.StatusOK, result)
}
