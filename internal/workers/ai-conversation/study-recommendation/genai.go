// internal/workers/ai-conversation/study-recommendation/genai.go
package studyrecommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

// callGenAI performs the single outbound request and returns the payload
// text of the reply.
func (h *Handler) callGenAI(ctx context.Context, prompt string) (string, error) {
	if h.config.APIKey == "" {
		return "", fmt.Errorf("%w: no credential configured", ErrExternalService)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     h.config.Model,
		MaxTokens: h.config.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrExternalService, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resp, err := h.client.PostJSON(ctx, h.config.GenAIBaseURL, map[string]string{
		"x-api-key":         h.config.APIKey,
		"anthropic-version": h.config.Version,
	}, body)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
			(errors.As(err, &netErr) && netErr.Timeout()) {
			return "", fmt.Errorf("%w: request timed out after %s", ErrExternalService, h.config.Timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	if !resp.OK() {
		return "", fmt.Errorf("%w: API error: %d: %s", ErrExternalService, resp.StatusCode, truncate(string(resp.Body), maxDiagnosticLen))
	}

	return extractText(resp.Body)
}
