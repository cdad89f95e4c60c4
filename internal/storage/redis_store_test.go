package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"engagement-optimizer/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestStore starts a throwaway Redis container.
func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	endpoint, err := c.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return NewRedisStore(rdb, time.Hour)
}

func TestRedisStore_Batch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadBatch(ctx, "main", "2025-03-01")
	require.True(t, errors.Is(err, ErrNotFound))

	recs := []model.ContentRecord{
		{ID: "a", Title: "A", DurationSec: 30, Views: 10, Tags: []string{"go"}},
		{ID: "b", Title: "B", DurationSec: 300, Views: 20},
	}
	require.NoError(t, s.SaveBatch(ctx, "main", "2025-03-01", recs))
	got, err := s.LoadBatch(ctx, "main", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	require.NoError(t, s.SaveBatch(ctx, "main", "2025-03-02", nil))
	got, err = s.LoadBatch(ctx, "main", "2025-03-02")
	require.NoError(t, err)
	assert.Empty(t, got)

	ttl, err := s.rdb.TTL(ctx, batchKey("main", "2025-03-01")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisStore_Analysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestAnalysis(ctx, "main")
	require.True(t, errors.Is(err, ErrNotFound))

	a := model.Analysis{
		RunID:   "run-1",
		Channel: "main",
		Period:  "2025-03-01",
		Ranked: []model.Ranked{
			{Record: model.ContentRecord{ID: "a"}, ContentType: model.ContentTypeShort, Score: 9},
			{Record: model.ContentRecord{ID: "b"}, ContentType: model.ContentTypeVideo, Score: 4},
		},
		Topics: []model.TopicCount{{Tag: "go", Count: 2}},
	}
	require.NoError(t, s.SaveAnalysis(ctx, a))

	latest, err := s.LatestAnalysis(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.RunID)
	assert.Len(t, latest.Ranked, 2)
	assert.Equal(t, a.Topics, latest.Topics)

	top, err := s.TopRanked(ctx, "main", "2025-03-01", 1)
	require.NoError(t, err)
	assert.Equal(t, []Scored{{ID: "a", Score: 9}}, top)

	// a rerun replaces both the ranking and the latest analysis
	a.RunID = "run-2"
	a.Ranked = a.Ranked[1:]
	require.NoError(t, s.SaveAnalysis(ctx, a))
	top, err = s.TopRanked(ctx, "main", "2025-03-01", 10)
	require.NoError(t, err)
	assert.Equal(t, []Scored{{ID: "b", Score: 4}}, top)
	latest, err = s.LatestAnalysis(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
}

func TestRedisStore_DoneMarker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	done, err := s.IsDone(ctx, "main", "2025-03-01")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkDone(ctx, "main", "2025-03-01"))
	done, err = s.IsDone(ctx, "main", "2025-03-01")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = s.IsDone(ctx, "other", "2025-03-01")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "engagement:batch:main:2025-03-01", batchKey("main", "2025-03-01"))
	assert.Equal(t, "engagement:rank:main:2025-03-01", rankKey("main", "2025-03-01"))
	assert.Equal(t, "engagement:latest:main", latestKey("main"))
	assert.Equal(t, "engagement:done:main:2025-03-01", doneKey("main", "2025-03-01"))
}
