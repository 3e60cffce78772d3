// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_completed_total",
			Help: "Total number of recommendations answered by the model",
		},
		[]string{"primary_location"},
	)

	RecommendationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_failed_total",
			Help: "Total number of recommendations that fell back",
		},
		[]string{"error_code"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of a recommendation round trip in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"outcome"},
	)

	RecommendationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendations_active",
			Help: "Number of recommendations currently waiting on the model",
		},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_status_updates_total",
			Help: "Total number of accepted location status reports",
		},
		[]string{"location", "busyness", "noise"},
	)
)
