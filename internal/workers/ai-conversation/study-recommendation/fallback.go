// internal/workers/ai-conversation/study-recommendation/fallback.go
package studyrecommendation

import (
	"sort"

	"libstatus-board/internal/models"
)

// Fallback builds the degraded answer for a failed recommendation. The
// offered location is the lexicographically smallest snapshot key that is a
// catalog location, else defaultLocation.
func Fallback(message string, snapshot models.StatusSnapshot, catalog *models.Catalog, defaultLocation string) *models.FailureResult {
	return &models.FailureResult{
		Error:   true,
		Message: message,
		Fallback: &models.Fallback{
			Primary: models.Pick{
				Location: fallbackLocation(snapshot, catalog, defaultLocation),
				Reason:   models.FallbackReason,
			},
		},
	}
}

func fallbackLocation(snapshot models.StatusSnapshot, catalog *models.Catalog, defaultLocation string) string {
	keys := make([]string, 0, len(snapshot))
	for id := range snapshot {
		if catalog.Has(id) {
			keys = append(keys, id)
		}
	}
	if len(keys) == 0 {
		if catalog.Has(defaultLocation) {
			return defaultLocation
		}
		return models.DefaultFallbackLocation
	}
	sort.Strings(keys)
	return keys[0]
}
