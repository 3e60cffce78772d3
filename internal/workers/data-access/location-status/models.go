// internal/workers/data-access/location-status/models.go
package locationstatus

import "libstatus-board/internal/models"

// Redis hash fields of one location.
const (
	fieldName        = "name"
	fieldBusyness    = "busyness"
	fieldNoise       = "noise"
	fieldLastUpdated = "lastUpdated"
)

// LocationUpdate is published on the update channel after every accepted
// report.
type LocationUpdate struct {
	ID     string             `json:"id"`
	Status models.StatusEntry `json:"status"`
}
