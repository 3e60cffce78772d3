// internal/workers/ai-conversation/study-recommendation/prompt.go
package studyrecommendation

import (
	"bytes"
	"encoding/json"
	"strings"

	"libstatus-board/internal/models"
)

const responseTemplate = `{
  "primary": {
    "location": "exact-location-key-from-data",
    "reason": "why it's perfect for them right now"
  },
  "backup": {
    "location": "exact-location-key-from-data",
    "reason": "why it's a good alternative"
  },
  "tip": "one helpful tip about timing, amenities, or strategy"
}`

// BuildPrompt renders the instruction text for one recommendation. Map keys
// are serialized in sorted order so equal inputs give byte-identical output.
func BuildPrompt(profile models.PreferenceProfile, snapshot models.StatusSnapshot, catalog *models.Catalog) string {
	if profile == nil {
		profile = models.PreferenceProfile{}
	}
	if snapshot == nil {
		snapshot = models.StatusSnapshot{}
	}

	var parts []string

	parts = append(parts, "You are a Dartmouth study spot expert. Based on this student's preferences and current library conditions, recommend the best 1-2 places to study RIGHT NOW.")

	parts = append(parts, "\nSTUDENT PREFERENCES:")
	parts = append(parts, marshalBlock(profile))

	parts = append(parts, "\nCURRENT LIBRARY STATUS (real-time data from last few minutes):")
	parts = append(parts, marshalBlock(snapshot))

	parts = append(parts, "\nLOCATION CHARACTERISTICS (what makes each spot unique):")
	parts = append(parts, marshalBlock(catalog.ByID()))

	parts = append(parts, "\nIMPORTANT INSTRUCTIONS:")
	parts = append(parts, "- Consider BOTH current availability AND how well the spot matches their preferences")
	parts = append(parts, "- If their preferred type is packed, suggest the next best alternative")
	parts = append(parts, `- Be honest if conditions aren't ideal ("normally perfect but currently busy")`)
	parts = append(parts, "- Location names in your response must EXACTLY match the keys in the data")
	parts = append(parts, "- Valid location keys: "+strings.Join(catalog.SortedIDs(), ", "))

	parts = append(parts, "\nRespond with ONLY valid JSON (no markdown, no backticks, no extra text):")
	parts = append(parts, responseTemplate)

	return strings.Join(parts, "\n")
}

// marshalBlock indents with two spaces and leaves <, > and & unescaped.
func marshalBlock(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
