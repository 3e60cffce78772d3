// internal/workers/ai-conversation/study-recommendation/prompt_test.go
package studyrecommendation

import (
	"strings"
	"testing"
	"time"

	"libstatus-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	catalog := models.DefaultCatalog()

	first := BuildPrompt(scenarioProfile(), scenarioSnapshot(), catalog)
	for i := 0; i < 25; i++ {
		// fresh maps each round so insertion order differs
		assert.Equal(t, first, BuildPrompt(scenarioProfile(), scenarioSnapshot(), catalog))
	}
}

func TestBuildPrompt_SectionOrder(t *testing.T) {
	prompt := BuildPrompt(scenarioProfile(), scenarioSnapshot(), models.DefaultCatalog())

	markers := []string{
		"You are a Dartmouth study spot expert.",
		"STUDENT PREFERENCES:",
		"CURRENT LIBRARY STATUS (real-time data from last few minutes):",
		"LOCATION CHARACTERISTICS (what makes each spot unique):",
		"IMPORTANT INSTRUCTIONS:",
		"Consider BOTH current availability AND how well the spot matches their preferences",
		"If their preferred type is packed, suggest the next best alternative",
		"Be honest if conditions aren't ideal",
		"must EXACTLY match the keys in the data",
		"Respond with ONLY valid JSON",
		`"primary": {`,
		`"backup": {`,
		`"tip":`,
	}

	last := -1
	for _, m := range markers {
		idx := strings.Index(prompt, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
}

func TestBuildPrompt_SerializesInputsVerbatim(t *testing.T) {
	updated := time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)
	snapshot := models.StatusSnapshot{
		"stacks": {Busyness: busyness(models.BusynessFillingUp), Noise: nil, LastUpdated: &updated},
		"blobby": {},
	}

	prompt := BuildPrompt(scenarioProfile(), snapshot, models.DefaultCatalog())

	assert.Contains(t, prompt, `"studyType": "solo-focus"`)
	assert.Contains(t, prompt, "\"needs\": [\n    \"outlets\"\n  ]")
	assert.Contains(t, prompt, `"busyness": "filling-up"`)
	assert.Contains(t, prompt, `"lastUpdated": "2026-10-18T14:30:00Z"`)
	// unreported fields stay null, never a default enum value
	assert.Contains(t, prompt, "\"blobby\": {\n    \"busyness\": null,\n    \"noise\": null,\n    \"lastUpdated\": null\n  }")
}

func TestBuildPrompt_ListsEveryCatalogKey(t *testing.T) {
	catalog := models.DefaultCatalog()
	prompt := BuildPrompt(nil, nil, catalog)

	for _, p := range catalog.Profiles() {
		assert.Contains(t, prompt, `"`+p.ID+`": {`)
		assert.Contains(t, prompt, `"vibe": "`+p.Vibe+`"`)
	}
	assert.Contains(t, prompt, "STUDENT PREFERENCES:\n{}")
	assert.Contains(t, prompt, "real-time data from last few minutes):\n{}")
}

func TestBuildPrompt_DoesNotEscapeHTML(t *testing.T) {
	prompt := BuildPrompt(models.PreferenceProfile{"atmosphere": "quiet & cozy <3"}, nil, models.DefaultCatalog())
	assert.Contains(t, prompt, `"atmosphere": "quiet & cozy <3"`)
}
