// internal/workers/data-access/location-status/store.go
package locationstatus

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
	"libstatus-board/internal/common/logger"
	"libstatus-board/internal/common/metrics"
	"libstatus-board/internal/common/validation"
	"libstatus-board/internal/models"

	"github.com/redis/go-redis/v9"
)

const TaskType = "location-status"

// Store keeps the live status of each catalog location in a Redis hash
// named <prefix><locationId>.
type Store struct {
	config  *Config
	rdb     redis.UniversalClient
	catalog *models.Catalog
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(config *Config, rdb redis.UniversalClient, catalog *models.Catalog, log logger.Logger) *Store {
	if config == nil {
		config = LoadConfig(nil)
	}
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	return &Store{
		config:  config,
		rdb:     rdb,
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"taskType": TaskType}),
		now:     time.Now,
	}
}

func (s *Store) key(id string) string {
	return s.config.KeyPrefix + id
}

// Snapshot reads every catalog location in one pipeline. Locations that
// were never reported are left out.
func (s *Store) Snapshot(ctx context.Context) (models.StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	ids := s.catalog.IDs()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.key(id))
		}
		return nil
	})
	if err != nil {
		return nil, commonerrors.NewStatusStoreFailedError("snapshot", err)
	}

	snapshot := make(models.StatusSnapshot, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		snapshot[id] = s.decodeEntry(id, fields)
	}
	return snapshot, nil
}

// Get returns the status of one location; ok is false when it was never
// reported.
func (s *Store) Get(ctx context.Context, id string) (models.StatusEntry, bool, error) {
	if !s.catalog.Has(id) {
		return models.StatusEntry{}, false, commonerrors.NewUnknownLocationIDError(id)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	fields, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return models.StatusEntry{}, false, commonerrors.NewStatusStoreFailedError("get", err)
	}
	if len(fields) == 0 {
		return models.StatusEntry{}, false, nil
	}
	return s.decodeEntry(id, fields), true, nil
}

// Update records a user report and stamps it with the current time. A
// report carrying only one field keeps the stored value of the other, or
// its default (empty, silent) when the location was never reported.
func (s *Store) Update(ctx context.Context, id string, update models.StatusUpdate) (models.StatusEntry, error) {
	profile, ok := s.catalog.Get(id)
	if !ok {
		return models.StatusEntry{}, commonerrors.NewUnknownLocationIDError(id)
	}
	if update.Empty() {
		return models.StatusEntry{}, commonerrors.NewInvalidStatusUpdateError("busyness or noise is required")
	}
	if res := validation.ValidateStruct(update); !res.Valid {
		return models.StatusEntry{}, commonerrors.NewInvalidStatusUpdateError(res.Summary())
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	busyness, noise := update.Busyness, update.Noise
	if busyness == "" || noise == "" {
		current, err := s.rdb.HMGet(ctx, s.key(id), fieldBusyness, fieldNoise).Result()
		if err != nil {
			return models.StatusEntry{}, commonerrors.NewStatusStoreFailedError("update", err)
		}
		if busyness == "" {
			busyness = storedOr(current[0], string(models.BusynessEmpty))
		}
		if noise == "" {
			noise = storedOr(current[1], string(models.NoiseSilent))
		}
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	b := models.Busyness(busyness)
	n := models.Noise(noise)
	entry := models.StatusEntry{Name: profile.Name, Busyness: &b, Noise: &n, LastUpdated: &now}

	if err := s.rdb.HSet(ctx, s.key(id),
		fieldName, profile.Name,
		fieldBusyness, busyness,
		fieldNoise, noise,
		fieldLastUpdated, now.UnixMilli(),
	).Err(); err != nil {
		return models.StatusEntry{}, commonerrors.NewStatusStoreFailedError("update", err)
	}

	metrics.StatusUpdates.WithLabelValues(id, busyness, noise).Inc()
	s.publish(ctx, LocationUpdate{ID: id, Status: entry})

	s.logger.Info("location status updated", map[string]interface{}{
		"locationId": id,
		"busyness":   busyness,
		"noise":      noise,
	})
	return entry, nil
}

// storedOr returns an HMGET value, or def when the field is missing or blank.
func storedOr(v interface{}, def string) string {
	if str, ok := v.(string); ok && str != "" {
		return str
	}
	return def
}

// Board lists every catalog location in declaration order with its
// freshness relative to now.
func (s *Store) Board(ctx context.Context, now time.Time) ([]models.LocationView, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.LocationView, 0, s.catalog.Len())
	for _, p := range s.catalog.Profiles() {
		entry, ok := snapshot[p.ID]
		if !ok {
			entry = models.StatusEntry{Name: p.Name}
		}
		views = append(views, models.LocationView{
			ID:         p.ID,
			Name:       p.Name,
			Status:     entry,
			Stale:      entry.IsStale(now, s.config.StaleAfter),
			UpdatedAgo: entry.UpdatedAgo(now),
		})
	}
	return views, nil
}

// Subscribe streams LocationUpdates until ctx is done. The returned channel
// is closed when the subscription ends.
func (s *Store) Subscribe(ctx context.Context) (<-chan LocationUpdate, error) {
	sub := s.rdb.Subscribe(ctx, s.config.UpdateChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, commonerrors.NewStatusStoreFailedError("subscribe", err)
	}

	out := make(chan LocationUpdate)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update LocationUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					s.logger.Warn("dropping malformed status update", map[string]interface{}{
						"error": err.Error(),
					})
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) publish(ctx context.Context, update LocationUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, s.config.UpdateChannel, payload).Err(); err != nil {
		s.logger.Warn("failed to publish status update", map[string]interface{}{
			"locationId": update.ID,
			"error":      err.Error(),
		})
	}
}

func (s *Store) decodeEntry(id string, fields map[string]string) models.StatusEntry {
	var entry models.StatusEntry
	entry.Name = fields[fieldName]
	if entry.Name == "" {
		if p, ok := s.catalog.Get(id); ok {
			entry.Name = p.Name
		}
	}
	if v, ok := fields[fieldBusyness]; ok && v != "" {
		b := models.Busyness(v)
		entry.Busyness = &b
	}
	if v, ok := fields[fieldNoise]; ok && v != "" {
		n := models.Noise(v)
		entry.Noise = &n
	}
	if v, ok := fields[fieldLastUpdated]; ok && v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			t := time.UnixMilli(ms).UTC()
			entry.LastUpdated = &t
		} else {
			s.logger.Warn("ignoring unreadable lastUpdated", map[string]interface{}{
				"locationId": id,
				"value":      v,
			})
		}
	}
	return entry
}

