// internal/workers/ai-conversation/study-recommendation/handler.go
package studyrecommendation

import (
	"context"
	"errors"
	"strings"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
	commonhttp "libstatus-board/internal/common/http"
	"libstatus-board/internal/common/metrics"
	"libstatus-board/internal/common/observability"
	"libstatus-board/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "study-recommendation"
)

var (
	ErrExternalService    = errors.New("EXTERNAL_SERVICE_ERROR")
	ErrMalformedEnvelope  = errors.New("MALFORMED_ENVELOPE")
	ErrUnparsableResponse = errors.New("UNPARSABLE_RESPONSE")
	ErrInvalidShape       = errors.New("INVALID_SHAPE")
	ErrUnknownLocation    = errors.New("UNKNOWN_LOCATION")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Handler produces study recommendations. It holds no per-request state and
// is safe for concurrent use.
type Handler struct {
	config  *Config
	catalog *models.Catalog
	client  *commonhttp.Client
	obs     *observability.Observability
	logger  Logger
}

// Option customises a Handler.
type Option func(*Handler)

// WithObservability traces and meters every recommendation.
func WithObservability(obs *observability.Observability) Option {
	return func(h *Handler) { h.obs = obs }
}

func NewHandler(config *Config, catalog *models.Catalog, log Logger, opts ...Option) *Handler {
	config = withDefaults(config)
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	h := &Handler{
		config:  config,
		catalog: catalog,
		client:  commonhttp.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// withDefaults returns a copy of config with unset fields filled in.
func withDefaults(config *Config) *Config {
	defaults := DefaultConfig()
	if config == nil {
		return defaults
	}
	c := *config
	if c.GenAIBaseURL == "" {
		c.GenAIBaseURL = defaults.GenAIBaseURL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.DefaultLocation == "" {
		c.DefaultLocation = defaults.DefaultLocation
	}
	return &c
}

// Catalog returns the locations this handler recommends from.
func (h *Handler) Catalog() *models.Catalog {
	return h.catalog
}

// Recommend runs one recommendation round trip. It never fails: every error
// is folded into a FailureResult carrying the fallback location.
func (h *Handler) Recommend(ctx context.Context, profile models.PreferenceProfile, snapshot models.StatusSnapshot) models.Result {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := h.obs.StartSpan(ctx, "study-recommendation.recommend",
		attribute.String("requestId", requestID),
		attribute.Int("snapshotSize", len(snapshot)),
	)
	defer span.End()

	metrics.RecommendationsActive.Inc()
	defer metrics.RecommendationsActive.Dec()

	log := h.logger.With(map[string]interface{}{"requestId": requestID})
	log.Info("processing recommendation", map[string]interface{}{
		"snapshotSize": len(snapshot),
	})

	rec, err := h.execute(ctx, profile, snapshot)
	elapsed := time.Since(start)

	if err != nil {
		code := ErrorCode(err)
		message := h.redact(err.Error())

		span.RecordError(errors.New(message))
		span.SetStatus(codes.Error, string(code))
		metrics.RecommendationsFailed.WithLabelValues(string(code)).Inc()
		metrics.RecommendationDuration.WithLabelValues("fallback").Observe(elapsed.Seconds())
		h.obs.RecordRecommendation(ctx, "fallback")
		h.obs.RecordRecommendationDuration(ctx, elapsed, "fallback")

		failure := Fallback(message, snapshot, h.catalog, h.config.DefaultLocation)
		failure.Code = string(code)

		log.Warn("recommendation failed, returning fallback", map[string]interface{}{
			"errorCode":        string(code),
			"errorCategory":    commonerrors.GetErrorCategory(code),
			"retryable":        commonerrors.IsRetryableErrorCode(code),
			"error":            message,
			"fallbackLocation": failure.Fallback.Primary.Location,
			"durationMs":       elapsed.Milliseconds(),
		})
		return models.Result{Failure: failure}
	}

	span.SetAttributes(
		attribute.String("primary", rec.Primary.Location),
		attribute.String("backup", rec.Backup.Location),
	)
	metrics.RecommendationsCompleted.WithLabelValues(rec.Primary.Location).Inc()
	metrics.RecommendationDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	h.obs.RecordRecommendation(ctx, "success")
	h.obs.RecordRecommendationDuration(ctx, elapsed, "success")

	log.Info("recommendation completed", map[string]interface{}{
		"primary":    rec.Primary.Location,
		"backup":     rec.Backup.Location,
		"durationMs": elapsed.Milliseconds(),
	})
	return models.Result{Recommendation: rec}
}

func (h *Handler) execute(ctx context.Context, profile models.PreferenceProfile, snapshot models.StatusSnapshot) (*models.Recommendation, error) {
	prompt := BuildPrompt(profile, snapshot, h.catalog)

	text, err := h.callGenAI(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return decodeRecommendation(text, h.catalog)
}

// redact scrubs the credential from text that leaves the handler.
func (h *Handler) redact(s string) string {
	if h.config.APIKey == "" {
		return s
	}
	return strings.ReplaceAll(s, h.config.APIKey, "[REDACTED]")
}

// ErrorCode maps a pipeline error onto its standard error code.
func ErrorCode(err error) commonerrors.ErrorCode {
	switch {
	case errors.Is(err, ErrExternalService):
		return commonerrors.ErrCodeExternalService
	case errors.Is(err, ErrMalformedEnvelope):
		return commonerrors.ErrCodeMalformedEnvelope
	case errors.Is(err, ErrUnparsableResponse):
		return commonerrors.ErrCodeUnparsableResponse
	case errors.Is(err, ErrInvalidShape):
		return commonerrors.ErrCodeInvalidShape
	case errors.Is(err, ErrUnknownLocation):
		return commonerrors.ErrCodeUnknownLocation
	default:
		return commonerrors.ErrCodeInternal
	}
}
