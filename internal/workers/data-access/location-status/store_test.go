// internal/workers/data-access/location-status/store_test.go
package locationstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "libstatus-board/internal/common/errors"
	"libstatus-board/internal/common/logger"
	"libstatus-board/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewStore(LoadConfig(nil), rdb, models.DefaultCatalog(), logger.NewTestLogger(t))
	store.now = func() time.Time { return fixedNow }
	return store, mr
}

func requireCode(t *testing.T, err error, code commonerrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestStore_UpdateAndSnapshot(t *testing.T) {
	store, mr := createTestStore(t)
	ctx := context.Background()

	entry, err := store.Update(ctx, "stacks", models.StatusUpdate{Busyness: "packed", Noise: "whispers"})
	require.NoError(t, err)
	assert.Equal(t, "The Stacks", entry.Name)
	assert.Equal(t, models.BusynessPacked, *entry.Busyness)
	assert.Equal(t, models.NoiseWhispers, *entry.Noise)
	assert.True(t, fixedNow.Equal(*entry.LastUpdated))

	assert.Equal(t, "packed", mr.HGet("location:stacks", "busyness"))
	assert.Equal(t, "1792335600000", mr.HGet("location:stacks", "lastUpdated"))

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, entry, snapshot["stacks"])
}

func TestStore_SnapshotEmpty(t *testing.T) {
	store, _ := createTestStore(t)

	snapshot, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestStore_SnapshotKeepsPartialEntries(t *testing.T) {
	store, mr := createTestStore(t)
	mr.HSet("location:sanborn", "noise", "silent")
	mr.HSet("location:not-a-place", "noise", "chatty")

	snapshot, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	entry := snapshot["sanborn"]
	assert.Equal(t, "Sanborn Library", entry.Name)
	assert.Nil(t, entry.Busyness, "unreported busyness stays absent")
	assert.Nil(t, entry.LastUpdated)
	require.NotNil(t, entry.Noise)
	assert.Equal(t, models.NoiseSilent, *entry.Noise)
}

func TestStore_UpdateValidation(t *testing.T) {
	store, mr := createTestStore(t)

	tests := []struct {
		name     string
		id       string
		update   models.StatusUpdate
		expected commonerrors.ErrorCode
	}{
		{name: "unknown location", id: "moon-base", update: models.StatusUpdate{Busyness: "empty", Noise: "silent"}, expected: commonerrors.ErrCodeUnknownLocationID},
		{name: "bad busyness", id: "stacks", update: models.StatusUpdate{Busyness: "overflowing", Noise: "silent"}, expected: commonerrors.ErrCodeInvalidStatusUpdate},
		{name: "bad noise", id: "stacks", update: models.StatusUpdate{Busyness: "empty", Noise: "loud"}, expected: commonerrors.ErrCodeInvalidStatusUpdate},
		{name: "missing fields", id: "stacks", update: models.StatusUpdate{}, expected: commonerrors.ErrCodeInvalidStatusUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Update(context.Background(), tt.id, tt.update)
			requireCode(t, err, tt.expected)
		})
	}
	assert.Empty(t, mr.Keys())
}

func TestStore_PartialUpdates(t *testing.T) {
	tests := []struct {
		name         string
		before       *models.StatusUpdate
		update       models.StatusUpdate
		wantBusyness models.Busyness
		wantNoise    models.Noise
	}{
		{
			name:         "busyness only keeps stored noise",
			before:       &models.StatusUpdate{Busyness: "packed", Noise: "chatty"},
			update:       models.StatusUpdate{Busyness: "empty"},
			wantBusyness: models.BusynessEmpty,
			wantNoise:    models.NoiseChatty,
		},
		{
			name:         "noise only keeps stored busyness",
			before:       &models.StatusUpdate{Busyness: "filling-up", Noise: "silent"},
			update:       models.StatusUpdate{Noise: "whispers"},
			wantBusyness: models.BusynessFillingUp,
			wantNoise:    models.NoiseWhispers,
		},
		{
			name:         "busyness only on a fresh location defaults noise",
			update:       models.StatusUpdate{Busyness: "packed"},
			wantBusyness: models.BusynessPacked,
			wantNoise:    models.NoiseSilent,
		},
		{
			name:         "noise only on a fresh location defaults busyness",
			update:       models.StatusUpdate{Noise: "chatty"},
			wantBusyness: models.BusynessEmpty,
			wantNoise:    models.NoiseChatty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mr := createTestStore(t)
			ctx := context.Background()

			if tt.before != nil {
				_, err := store.Update(ctx, "stacks", *tt.before)
				require.NoError(t, err)
			}

			entry, err := store.Update(ctx, "stacks", tt.update)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBusyness, *entry.Busyness)
			assert.Equal(t, tt.wantNoise, *entry.Noise)

			assert.Equal(t, string(tt.wantBusyness), mr.HGet("location:stacks", "busyness"))
			assert.Equal(t, string(tt.wantNoise), mr.HGet("location:stacks", "noise"))
		})
	}
}

func TestStore_Get(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "blobby")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Update(ctx, "blobby", models.StatusUpdate{Busyness: "filling-up", Noise: "chatty"})
	require.NoError(t, err)

	entry, ok, err := store.Get(ctx, "blobby")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.BusynessFillingUp, *entry.Busyness)

	_, _, err = store.Get(ctx, "nowhere")
	requireCode(t, err, commonerrors.ErrCodeUnknownLocationID)
}

func TestStore_Board(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, "novack", models.StatusUpdate{Busyness: "packed", Noise: "chatty"})
	require.NoError(t, err)

	store.now = func() time.Time { return fixedNow.Add(-45 * time.Minute) }
	_, err = store.Update(ctx, "stacks", models.StatusUpdate{Busyness: "empty", Noise: "silent"})
	require.NoError(t, err)

	views, err := store.Board(ctx, fixedNow.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, views, 12)
	assert.Equal(t, "first-floor-berry", views[0].ID)

	byID := make(map[string]models.LocationView)
	for _, v := range views {
		byID[v.ID] = v
	}

	assert.False(t, byID["novack"].Stale)
	assert.Equal(t, "5m ago", byID["novack"].UpdatedAgo)

	assert.True(t, byID["stacks"].Stale)
	assert.Equal(t, "50m ago", byID["stacks"].UpdatedAgo)

	assert.True(t, byID["tower-room"].Stale)
	assert.Equal(t, "No updates yet", byID["tower-room"].UpdatedAgo)
	assert.Equal(t, "Tower Room", byID["tower-room"].Name)
	assert.Nil(t, byID["tower-room"].Status.Busyness)
}

func TestStore_Subscribe(t *testing.T) {
	store, _ := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := store.Subscribe(ctx)
	require.NoError(t, err)

	_, err = store.Update(context.Background(), "tower-room", models.StatusUpdate{Busyness: "empty", Noise: "silent"})
	require.NoError(t, err)

	select {
	case u := <-updates:
		assert.Equal(t, "tower-room", u.ID)
		require.NotNil(t, u.Status.Busyness)
		assert.Equal(t, models.BusynessEmpty, *u.Status.Busyness)
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	cancel()
	select {
	case _, ok := <-updates:
		assert.False(t, ok, "channel closes after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestStore_UpdateRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(LoadConfig(nil), db, models.DefaultCatalog(), logger.NewTestLogger(t))
	store.now = func() time.Time { return fixedNow }

	mock.ExpectHSet("location:stacks",
		"name", "The Stacks",
		"busyness", "empty",
		"noise", "silent",
		"lastUpdated", fixedNow.UnixMilli(),
	).SetErr(errors.New("READONLY You can't write against a read only replica"))

	_, err := store.Update(context.Background(), "stacks", models.StatusUpdate{Busyness: "empty", Noise: "silent"})
	requireCode(t, err, commonerrors.ErrCodeStatusStoreFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PartialUpdateReadError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(LoadConfig(nil), db, models.DefaultCatalog(), logger.NewTestLogger(t))

	mock.ExpectHMGet("location:stacks", "busyness", "noise").SetErr(errors.New("connection reset"))

	_, err := store.Update(context.Background(), "stacks", models.StatusUpdate{Noise: "silent"})
	requireCode(t, err, commonerrors.ErrCodeStatusStoreFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(LoadConfig(nil), db, models.DefaultCatalog(), logger.NewNoOpLogger())

	mock.ExpectHGetAll("location:sanborn").SetErr(errors.New("connection reset"))

	_, _, err := store.Get(context.Background(), "sanborn")
	requireCode(t, err, commonerrors.ErrCodeStatusStoreFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SnapshotUnreachable(t *testing.T) {
	store, mr := createTestStore(t)
	mr.Close()

	_, err := store.Snapshot(context.Background())
	requireCode(t, err, commonerrors.ErrCodeStatusStoreFailed)
}

func TestStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := LoadConfig(nil)
	cfg.KeyPrefix = "board:test:"
	store := NewStore(cfg, rdb, nil, logger.NewNoOpLogger())

	_, err := store.Update(context.Background(), "1902-room", models.StatusUpdate{Busyness: "empty", Noise: "whispers"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("board:test:1902-room"))
}
