// internal/workers/data-access/location-status/config.go
package locationstatus

import (
	"time"

	"libstatus-board/internal/common/config"
)

type Config struct {
	KeyPrefix     string
	UpdateChannel string
	StaleAfter    time.Duration
	Timeout       time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		KeyPrefix:     config.DefaultRedisKeyPrefix,
		UpdateChannel: "location-status:updates",
		StaleAfter:    time.Duration(config.DefaultStaleAfter) * time.Minute,
		Timeout:       3 * time.Second,
	}
	if cfg == nil {
		return c
	}
	if cfg.Database.Redis.KeyPrefix != "" {
		c.KeyPrefix = cfg.Database.Redis.KeyPrefix
	}
	if cfg.Recommendation.StaleAfter > 0 {
		c.StaleAfter = cfg.Recommendation.StaleAfterDuration()
	}
	return c
}
