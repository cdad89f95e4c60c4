package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engagement-optimizer/internal/model"
)

// VideoLister yields the ids of a channel's recent videos.
type VideoLister interface {
	ListVideoIDs(ctx context.Context, channelID string, limit int) ([]string, error)
}

// DetailFetcher resolves video ids into records.
type DetailFetcher interface {
	VideoDetails(ctx context.Context, ids []string) ([]model.ContentRecord, error)
}

// MetricsFetcher supplies shares and watch time, which the Data API lacks.
type MetricsFetcher interface {
	VideoMetrics(ctx context.Context, channelID string, ids []string, start, end time.Time) (map[string]VideoMetrics, error)
}

// Ingester collects one channel's recent videos as content records.
type Ingester struct {
	ChannelID  string
	MaxResults int
	Lister     VideoLister
	Details    DetailFetcher
	// Metrics is optional. When nil, shares and average view duration are 0.
	Metrics MetricsFetcher
	Now     func() time.Time
}

// Ingest lists, resolves, and enriches the channel's videos.
func (in *Ingester) Ingest(ctx context.Context) ([]model.ContentRecord, error) {
	ids, err := in.Lister.ListVideoIDs(ctx, in.ChannelID, in.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	if len(ids) == 0 {
		return []model.ContentRecord{}, nil
	}
	records, err := in.Details.VideoDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}
	if in.Metrics == nil {
		slog.Warn("youtube: analytics not configured; recording shares and average_view_duration_sec as 0",
			"channel", in.ChannelID, "videos", len(records))
		return records, nil
	}
	if err := in.enrich(ctx, records); err != nil {
		return nil, fmt.Errorf("video metrics: %w", err)
	}
	slog.Info("youtube: ingested channel", "channel", in.ChannelID, "videos", len(records))
	return records, nil
}

func (in *Ingester) enrich(ctx context.Context, records []model.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	end := now().UTC()
	start := end
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		if !r.PublishedAt.IsZero() && r.PublishedAt.Before(start) {
			start = r.PublishedAt
		}
	}
	metrics, err := in.Metrics.VideoMetrics(ctx, in.ChannelID, ids, start, end)
	if err != nil {
		return err
	}
	missing := 0
	for i := range records {
		m, ok := metrics[records[i].ID]
		if !ok {
			missing++
			continue
		}
		records[i].Shares = m.Shares
		records[i].AvgViewDurationSec = m.AvgViewDurationSec
	}
	if missing > 0 {
		slog.Debug("youtube: no analytics rows for some videos", "channel", in.ChannelID, "missing", missing)
	}
	return nil
}

// Source labels records produced by this ingester.
func (in *Ingester) Source() string { return "youtube" }
