// internal/handlers/router.go
package handlers

import (
	"context"
	"net/http"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
	"libstatus-board/internal/common/logger"
	"libstatus-board/internal/models"
	locationstatus "libstatus-board/internal/workers/data-access/location-status"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Recommender produces one recommendation per call and never fails.
type Recommender interface {
	Recommend(ctx context.Context, profile models.PreferenceProfile, snapshot models.StatusSnapshot) models.Result
}

// StatusStore is the live status board backing store.
type StatusStore interface {
	Snapshot(ctx context.Context) (models.StatusSnapshot, error)
	Board(ctx context.Context, now time.Time) ([]models.LocationView, error)
	Update(ctx context.Context, id string, update models.StatusUpdate) (models.StatusEntry, error)
	Subscribe(ctx context.Context) (<-chan locationstatus.LocationUpdate, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MetricsHandler     http.Handler
}

type Server struct {
	recommender Recommender
	store       StatusStore
	ready       Pinger
	errors      *commonerrors.ErrorHandler
	logger      logger.Logger
	now         func() time.Time
}

func NewServer(recommender Recommender, store StatusStore, ready Pinger, log logger.Logger) *Server {
	return &Server{
		recommender: recommender,
		store:       store,
		ready:       ready,
		errors:      commonerrors.NewErrorHandler(log),
		logger:      log,
		now:         time.Now,
	}
}

// Router wires every route of the board server.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.Health)
	r.Get("/ready", s.Ready)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimitPerMinute > 0 {
				r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
			}
			r.HandleFunc("/recommendation", s.Recommendation)
		})

		r.Get("/locations", s.ListLocations)
		r.Get("/locations/stream", s.StreamLocations)
		r.Post("/locations/{locationID}/status", s.UpdateLocationStatus)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.errors.HandleHTTPError(w, r, commonerrors.NewMethodNotAllowedError())
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request served", map[string]interface{}{
			"requestId":  middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
