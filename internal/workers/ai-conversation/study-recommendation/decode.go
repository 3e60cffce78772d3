// internal/workers/ai-conversation/study-recommendation/decode.go
package studyrecommendation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"libstatus-board/internal/common/validation"
	"libstatus-board/internal/models"
)

const maxDiagnosticLen = 300

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

var recommendationSchema = validation.MustCompileSchema(`{
  "type": "object",
  "required": ["primary", "backup"],
  "properties": {
    "primary": {"$ref": "#/definitions/pick"},
    "backup":  {"$ref": "#/definitions/pick"},
    "tip":     {"type": "string"}
  },
  "definitions": {
    "pick": {
      "type": "object",
      "required": ["location"],
      "properties": {
        "location": {"type": "string", "minLength": 1},
        "reason":   {"type": "string"}
      }
    }
  }
}`)

// envelope is the subset of the Messages API reply that is consumed.
type envelope struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// extractText returns the text of the first "text" content block. Other
// block types (tool_use, thinking) are skipped.
func extractText(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: reply is not a JSON envelope: %v", ErrMalformedEnvelope, err)
	}
	if len(env.Content) == 0 {
		return "", fmt.Errorf("%w: reply has no content blocks", ErrMalformedEnvelope)
	}
	for _, block := range env.Content {
		if block.Type != "text" {
			continue
		}
		if strings.TrimSpace(block.Text) == "" {
			return "", fmt.Errorf("%w: first text block is empty", ErrMalformedEnvelope)
		}
		return block.Text, nil
	}
	return "", fmt.Errorf("%w: reply has no text block", ErrMalformedEnvelope)
}

// stripFences removes one leading and one trailing code fence and the
// whitespace around them.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = leadingFence.ReplaceAllString(s, "")
	}
	if strings.HasSuffix(s, "```") {
		s = trailingFence.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// decodeRecommendation turns the model's text payload into a validated
// Recommendation whose locations are all catalog keys.
func decodeRecommendation(text string, catalog *models.Catalog) (*models.Recommendation, error) {
	cleaned := stripFences(text)

	var doc interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		obj, ok := extractJSONObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("%w: %v: %s", ErrUnparsableResponse, err, truncate(cleaned, maxDiagnosticLen))
		}
		if err := json.Unmarshal([]byte(obj), &doc); err != nil {
			return nil, fmt.Errorf("%w: %v: %s", ErrUnparsableResponse, err, truncate(cleaned, maxDiagnosticLen))
		}
	}

	if res := recommendationSchema.Validate(doc); !res.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, res.Summary())
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	var rec models.Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	for _, loc := range []string{rec.Primary.Location, rec.Backup.Location} {
		if !catalog.Has(loc) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLocation, loc)
		}
	}

	return &rec, nil
}

// extractJSONObject finds the first balanced {...} in s, skipping braces
// inside string literals.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
