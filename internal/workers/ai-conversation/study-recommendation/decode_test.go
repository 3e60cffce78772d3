// internal/workers/ai-conversation/study-recommendation/decode_test.go
package studyrecommendation

import (
	"errors"
	"testing"

	"libstatus-board/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{"primary":{"location":"stacks","reason":"silent"},"backup":{"location":"tower-room","reason":"views"},"tip":"bring a sweater"}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "json fence", input: "```json\n" + validPayload + "\n```"},
		{name: "plain fence", input: "```\n" + validPayload + "\n```"},
		{name: "bare", input: validPayload},
		{name: "surrounding whitespace", input: "\n\n  ```json\n" + validPayload + "\n```  \n"},
		{name: "fence on one line", input: "```json " + validPayload + "```"},
		{name: "crlf", input: "```json\r\n" + validPayload + "\r\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, validPayload, stripFences(tt.input))
		})
	}
}

func TestDecodeRecommendation_FenceTolerance(t *testing.T) {
	catalog := models.DefaultCatalog()

	bare, err := decodeRecommendation(validPayload, catalog)
	require.NoError(t, err)

	for _, wrapped := range []string{
		"```json\n" + validPayload + "\n```",
		"```\n" + validPayload + "\n```",
	} {
		got, err := decodeRecommendation(wrapped, catalog)
		require.NoError(t, err)
		assert.Equal(t, bare, got)
	}

	assert.Equal(t, "stacks", bare.Primary.Location)
	assert.Equal(t, "tower-room", bare.Backup.Location)
	assert.Equal(t, "bring a sweater", bare.Tip)
}

func TestDecodeRecommendation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "not json", payload: "Sorry, I cannot help with that.", want: ErrUnparsableResponse},
		{name: "truncated", payload: `{"primary":{"location":"stacks"`, want: ErrUnparsableResponse},
		{name: "missing backup", payload: `{"primary":{"location":"stacks","reason":"x"}}`, want: ErrInvalidShape},
		{name: "missing primary", payload: `{"backup":{"location":"stacks","reason":"x"}}`, want: ErrInvalidShape},
		{name: "primary not an object", payload: `{"primary":"stacks","backup":{"location":"sanborn"}}`, want: ErrInvalidShape},
		{name: "empty location", payload: `{"primary":{"location":""},"backup":{"location":"sanborn"}}`, want: ErrInvalidShape},
		{name: "location not a string", payload: `{"primary":{"location":4},"backup":{"location":"sanborn"}}`, want: ErrInvalidShape},
		{name: "top level array", payload: `[1,2]`, want: ErrInvalidShape},
		{name: "tip wrong type", payload: `{"primary":{"location":"stacks"},"backup":{"location":"sanborn"},"tip":7}`, want: ErrInvalidShape},
		{name: "unknown primary", payload: `{"primary":{"location":"Stacks"},"backup":{"location":"sanborn"}}`, want: ErrUnknownLocation},
		{name: "unknown backup", payload: `{"primary":{"location":"stacks"},"backup":{"location":"baker-tower"}}`, want: ErrUnknownLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeRecommendation(tt.payload, models.DefaultCatalog())
			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeRecommendation_UnknownLocationNamesValue(t *testing.T) {
	_, err := decodeRecommendation(`{"primary":{"location":"baker-tower"},"backup":{"location":"stacks"}}`, models.DefaultCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"baker-tower"`)
}

func TestDecodeRecommendation_ProseAroundObject(t *testing.T) {
	text := "Here is my pick:\n" + validPayload + "\nGood luck {studying}!"
	rec, err := decodeRecommendation(text, models.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, "stacks", rec.Primary.Location)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "braces in strings", input: `x {"a":"}{","b":{"c":1}} y`, want: `{"a":"}{","b":{"c":1}}`, ok: true},
		{name: "escaped quote", input: `{"a":"say \"}\""}`, want: `{"a":"say \"}\""}`, ok: true},
		{name: "unbalanced", input: `{"a":{"b":1}`, ok: false},
		{name: "no object", input: `just words`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractText(t *testing.T) {
	text, err := extractText([]byte(createEnvelope("hello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	for _, body := range []string{
		`{"content":[]}`,
		`{"content":[{"type":"text","text":"   "}]}`,
		`{"id":"x"}`,
		`not json`,
		`{"content":[{"type":"tool_use","id":"t1","name":"lookup"}]}`,
		`{"content":[{"text":"untyped block"}]}`,
	} {
		_, err := extractText([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, body)
	}
}

func TestExtractText_SkipsNonTextBlocks(t *testing.T) {
	body := `{"content":[
		{"type":"thinking","thinking":"hmm"},
		{"type":"tool_use","id":"t1","name":"lookup","input":{}},
		{"type":"text","text":"{\"primary\":{}}"},
		{"type":"text","text":"second"}
	]}`

	text, err := extractText([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, `{"primary":{}}`, text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	// never splits a multi-byte rune
	assert.Equal(t, "a...", truncate("aé", 2))
}
