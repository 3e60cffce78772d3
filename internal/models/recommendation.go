// internal/models/recommendation.go
package models

import "encoding/json"

// FallbackReason is shown when the model could not produce a recommendation.
const FallbackReason = "Unable to get AI recommendation. This is the first available option."

type Pick struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

// Recommendation is a validated model answer. Primary and Backup locations
// are always catalog keys.
type Recommendation struct {
	Primary Pick   `json:"primary"`
	Backup  Pick   `json:"backup"`
	Tip     string `json:"tip,omitempty"`
}

type Fallback struct {
	Primary Pick `json:"primary"`
}

// FailureResult is returned instead of a Recommendation on any failure.
type FailureResult struct {
	Error    bool      `json:"error"`
	Message  string    `json:"message"`
	Code     string    `json:"code,omitempty"`
	Fallback *Fallback `json:"fallback,omitempty"`
}

// Result holds exactly one of Recommendation or Failure.
type Result struct {
	Recommendation *Recommendation
	Failure        *FailureResult
}

func (r Result) OK() bool {
	return r.Recommendation != nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Recommendation != nil {
		return json.Marshal(r.Recommendation)
	}
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return []byte("null"), nil
}

// UnmarshalJSON tells the two shapes apart by the "error" flag.
func (r *Result) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error bool `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error {
		var f FailureResult
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*r = Result{Failure: &f}
		return nil
	}
	var rec Recommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = Result{Recommendation: &rec}
	return nil
}

// RecommendationRequest is the body accepted by the proxy endpoint.
type RecommendationRequest struct {
	QuizAnswers      PreferenceProfile `json:"quizAnswers"`
	LiveLocationData StatusSnapshot    `json:"liveLocationData"`
}

// StatusUpdate is a user report for one location. Either field may be left
// empty; the stored value is kept for it.
type StatusUpdate struct {
	Busyness string `json:"busyness,omitempty" validate:"omitempty,oneof=empty filling-up packed"`
	Noise    string `json:"noise,omitempty" validate:"omitempty,oneof=silent whispers chatty"`
}

// Empty reports whether the update carries neither field.
func (u StatusUpdate) Empty() bool {
	return u.Busyness == "" && u.Noise == ""
}

// LocationView is one row of the live status board.
type LocationView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Status     StatusEntry `json:"status"`
	Stale      bool        `json:"stale"`
	UpdatedAgo string      `json:"updatedAgo"`
}
