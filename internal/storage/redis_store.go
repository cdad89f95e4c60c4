package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"engagement-optimizer/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a batch or analysis has not been stored.
var ErrNotFound = errors.New("storage: not found")

// doneTTL bounds how long run markers outlive their period.
const doneTTL = 30 * 24 * time.Hour

// RedisStore is the hand-off between ingestion and analysis. Batches and
// rankings expire after the retention window; only the latest analysis per
// channel is kept.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewRedisStore(rdb *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, retention: retention}
}

func batchKey(channel, period string) string {
	return fmt.Sprintf("engagement:batch:%s:%s", channel, period)
}

func rankKey(channel, period string) string {
	return fmt.Sprintf("engagement:rank:%s:%s", channel, period)
}

func latestKey(channel string) string {
	return fmt.Sprintf("engagement:latest:%s", channel)
}

func doneKey(channel, period string) string {
	return fmt.Sprintf("engagement:done:%s:%s", channel, period)
}

// Scored is one member of a stored ranking.
type Scored struct {
	ID    string
	Score float64
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// SaveBatch stores the ingested records for a channel and period, replacing
// any earlier batch for the same period.
func (s *RedisStore) SaveBatch(ctx context.Context, channel, period string, records []model.ContentRecord) error {
	if records == nil {
		records = []model.ContentRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, batchKey(channel, period), b, s.retention).Err()
}

// LoadBatch returns the records stored by SaveBatch or ErrNotFound.
func (s *RedisStore) LoadBatch(ctx context.Context, channel, period string) ([]model.ContentRecord, error) {
	b, err := s.rdb.Get(ctx, batchKey(channel, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("batch %s/%s: %w", channel, period, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var records []model.ContentRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode batch %s/%s: %w", channel, period, err)
	}
	return records, nil
}

// SaveAnalysis writes the period ranking as a sorted set and replaces the
// channel's latest analysis.
func (s *RedisStore) SaveAnalysis(ctx context.Context, a model.Analysis) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	zkey := rankKey(a.Channel, a.Period)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, zkey)
		if len(a.Ranked) > 0 {
			zs := make([]redis.Z, len(a.Ranked))
			for i, r := range a.Ranked {
				zs[i] = redis.Z{Score: r.Score, Member: r.Record.ID}
			}
			p.ZAdd(ctx, zkey, zs...)
			p.Expire(ctx, zkey, s.retention)
		}
		p.Set(ctx, latestKey(a.Channel), b, 0)
		return nil
	})
	return err
}

// TopRanked returns the n highest scores stored for a channel and period.
func (s *RedisStore) TopRanked(ctx context.Context, channel, period string, n int) ([]Scored, error) {
	if n <= 0 {
		return []Scored{}, nil
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, rankKey(channel, period), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Scored, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, Scored{ID: id, Score: z.Score})
	}
	return out, nil
}

// LatestAnalysis returns the most recent analysis for a channel or ErrNotFound.
func (s *RedisStore) LatestAnalysis(ctx context.Context, channel string) (model.Analysis, error) {
	var a model.Analysis
	b, err := s.rdb.Get(ctx, latestKey(channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return a, fmt.Errorf("analysis %s: %w", channel, ErrNotFound)
	}
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return a, fmt.Errorf("decode analysis %s: %w", channel, err)
	}
	return a, nil
}

func (s *RedisStore) IsDone(ctx context.Context, channel, period string) (bool, error) {
	res, err := s.rdb.Get(ctx, doneKey(channel, period)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res == "1", nil
}

func (s *RedisStore) MarkDone(ctx context.Context, channel, period string) error {
	return s.rdb.Set(ctx, doneKey(channel, period), "1", doneTTL).Err()
}
