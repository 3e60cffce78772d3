// internal/models/location.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Busyness is the user-reported occupancy of a location.
type Busyness string

const (
	BusynessEmpty     Busyness = "empty"
	BusynessFillingUp Busyness = "filling-up"
	BusynessPacked    Busyness = "packed"
)

// Valid reports whether b is one of the known busyness levels.
func (b Busyness) Valid() bool {
	switch b {
	case BusynessEmpty, BusynessFillingUp, BusynessPacked:
		return true
	}
	return false
}

// Noise is the user-reported sound level of a location.
type Noise string

const (
	NoiseSilent   Noise = "silent"
	NoiseWhispers Noise = "whispers"
	NoiseChatty   Noise = "chatty"
)

func (n Noise) Valid() bool {
	switch n {
	case NoiseSilent, NoiseWhispers, NoiseChatty:
		return true
	}
	return false
}

// LocationProfile is the static description of a study location.
type LocationProfile struct {
	ID        string   `json:"-"`
	Name      string   `json:"-"`
	Vibe      string   `json:"vibe"`
	BestFor   string   `json:"bestFor"`
	Amenities []string `json:"amenities"`
}

// StatusEntry is the live status of one location. Nil fields have not been
// reported yet and are serialized as null rather than defaulted.
type StatusEntry struct {
	Name        string     `json:"name,omitempty"`
	Busyness    *Busyness  `json:"busyness"`
	Noise       *Noise     `json:"noise"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// StatusSnapshot maps location id to its status at read time.
type StatusSnapshot map[string]StatusEntry

// UnmarshalJSON accepts lastUpdated either as epoch milliseconds (what the
// browser clients write) or as an RFC3339 string.
func (e *StatusEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Busyness    *Busyness       `json:"busyness"`
		Noise       *Noise          `json:"noise"`
		LastUpdated json.RawMessage `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Name = raw.Name
	e.Busyness = raw.Busyness
	e.Noise = raw.Noise
	e.LastUpdated = nil

	if len(raw.LastUpdated) == 0 || string(raw.LastUpdated) == "null" {
		return nil
	}

	var millis int64
	if err := json.Unmarshal(raw.LastUpdated, &millis); err == nil {
		t := time.UnixMilli(millis).UTC()
		e.LastUpdated = &t
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.LastUpdated, &s); err != nil {
		return fmt.Errorf("lastUpdated: expected epoch millis or RFC3339 string: %w", err)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("lastUpdated: %w", err)
	}
	t = t.UTC()
	e.LastUpdated = &t
	return nil
}

// IsStale reports whether the entry has no update or its last update is
// older than maxAge.
func (e StatusEntry) IsStale(now time.Time, maxAge time.Duration) bool {
	if e.LastUpdated == nil {
		return true
	}
	return now.Sub(*e.LastUpdated) > maxAge
}

// UpdatedAgo renders the last update as a short relative time.
func (e StatusEntry) UpdatedAgo(now time.Time) string {
	if e.LastUpdated == nil {
		return "No updates yet"
	}
	seconds := int64(now.Sub(*e.LastUpdated) / time.Second)
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

// PreferenceProfile is the quiz output. Its shape is owned by the quiz and
// passed through untouched.
type PreferenceProfile map[string]interface{}

// NewPreferenceProfile builds the profile produced by the five-question quiz.
func NewPreferenceProfile(noise, studyType, atmosphere, duration string, needs []string) PreferenceProfile {
	if needs == nil {
		needs = []string{}
	}
	return PreferenceProfile{
		"noisePreference": noise,
		"studyType":       studyType,
		"atmosphere":      atmosphere,
		"duration":        duration,
		"needs":           needs,
	}
}
