// internal/workers/ai-conversation/study-recommendation/config.go
package studyrecommendation

import (
	"time"

	"libstatus-board/internal/common/config"
	"libstatus-board/internal/models"
)

type Config struct {
	GenAIBaseURL    string
	APIKey          string
	Model           string
	Version         string
	MaxTokens       int
	Timeout         time.Duration
	DefaultLocation string
}

// LoadConfig maps the application config onto the handler settings.
func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}

	genai := cfg.APIs.GenAI
	if genai.BaseURL != "" {
		c.GenAIBaseURL = genai.BaseURL
	}
	c.APIKey = genai.APIKey
	if genai.Model != "" {
		c.Model = genai.Model
	}
	if genai.Version != "" {
		c.Version = genai.Version
	}
	if genai.MaxTokens > 0 {
		c.MaxTokens = genai.MaxTokens
	}
	if genai.Timeout > 0 {
		c.Timeout = config.GetDuration(genai.Timeout)
	}
	if cfg.Recommendation.DefaultLocation != "" {
		c.DefaultLocation = cfg.Recommendation.DefaultLocation
	}
	return c
}

func DefaultConfig() *Config {
	return &Config{
		GenAIBaseURL:    config.DefaultGenAIBaseURL,
		Model:           config.DefaultGenAIModel,
		Version:         config.DefaultGenAIVersion,
		MaxTokens:       config.DefaultGenAIMaxTokens,
		Timeout:         config.GetDuration(config.DefaultGenAITimeout),
		DefaultLocation: models.DefaultFallbackLocation,
	}
}
