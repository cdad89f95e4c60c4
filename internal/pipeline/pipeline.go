// Package pipeline runs the two stages of an engagement analysis. Ingest
// stores a channel's records under the current period; Analyze loads them
// back, ranks them and keeps the result as the channel's latest analysis.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engagement-optimizer/internal/ai"
	"engagement-optimizer/internal/dataset"
	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/metrics"
	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"

	"github.com/google/uuid"
)

// Ingester produces the records for one channel.
type Ingester interface {
	Ingest(ctx context.Context) ([]model.ContentRecord, error)
}

// Store is the hand-off between the stages.
type Store interface {
	SaveBatch(ctx context.Context, channel, period string, records []model.ContentRecord) error
	LoadBatch(ctx context.Context, channel, period string) ([]model.ContentRecord, error)
	SaveAnalysis(ctx context.Context, a model.Analysis) error
}

// Result is the outcome of one analysis run.
type Result = model.Analysis

// ideaCandidates bounds how many ranked items are sent to the advisor.
const ideaCandidates = 10

// Runner executes the stages for a channel.
type Runner struct {
	Store   Store
	Advisor ai.Advisor // optional
	Options engagement.Options
	// Language is passed to the advisor.
	Language string
	Now      func() time.Time
}

// PeriodKey returns the UTC date used to key a run's data.
func PeriodKey(t time.Time) string {
	return LocalPeriodKey(t, time.UTC)
}

// LocalPeriodKey returns the date of t in loc; nil means UTC.
func LocalPeriodKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Ingest collects records and stores them for the current period. It
// returns the number of records stored.
func (r *Runner) Ingest(ctx context.Context, channel string, in Ingester) (int, error) {
	return r.ingest(ctx, channel, PeriodKey(r.now()), in)
}

func (r *Runner) ingest(ctx context.Context, channel, period string, in Ingester) (n int, err error) {
	src := sourceOf(in)
	defer func() { metrics.RecordStage(metrics.StageIngest, src, err) }()

	records, err := in.Ingest(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", channel, err)
	}
	for i := range records {
		if err := validation.ValidateRecord(i, records[i]); err != nil {
			return 0, fmt.Errorf("ingest %s: %w", channel, err)
		}
	}
	if err := r.Store.SaveBatch(ctx, channel, period, records); err != nil {
		return 0, fmt.Errorf("store batch %s/%s: %w", channel, period, err)
	}
	metrics.RecordIngested(channel, len(records))
	slog.Info("pipeline: ingested", "channel", channel, "period", period, "records", len(records), "source", src)
	return len(records), nil
}

// Analyze ranks the current period's batch and stores it as the channel's
// latest analysis.
func (r *Runner) Analyze(ctx context.Context, channel string) (Result, error) {
	return r.analyze(ctx, channel, PeriodKey(r.now()))
}

func (r *Runner) analyze(ctx context.Context, channel, period string) (res Result, err error) {
	defer func() { metrics.RecordStage(metrics.StageAnalyze, "store", err) }()

	now := r.now()
	records, err := r.Store.LoadBatch(ctx, channel, period)
	if err != nil {
		return Result{}, fmt.Errorf("load batch %s/%s: %w", channel, period, err)
	}

	start := time.Now()
	out, err := engagement.Analyze(records, r.Options)
	metrics.ObserveAnalysis(time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("analyze %s: %w", channel, err)
	}

	res = Result{
		RunID:       uuid.NewString(),
		Channel:     channel,
		Period:      period,
		GeneratedAt: now.UTC(),
		Ranked:      out.Ranked,
		Topics:      out.Topics,
	}
	if r.Advisor != nil && len(out.Ranked) > 0 {
		ideas, err := r.Advisor.ThemeIdeas(ctx, out.Topics, engagement.Top(out.Ranked, ideaCandidates), r.Language)
		if err != nil {
			slog.Warn("pipeline: theme ideas unavailable", "channel", channel, "err", err)
		} else {
			res.Ideas = ideas
		}
	}
	if err := r.Store.SaveAnalysis(ctx, res); err != nil {
		return Result{}, fmt.Errorf("store analysis %s: %w", channel, err)
	}
	slog.Info("pipeline: analyzed", "channel", channel, "period", period, "run_id", res.RunID,
		"records", len(res.Ranked), "topics", len(res.Topics))
	return res, nil
}

// Run executes Ingest then Analyze for the current period. A failed ingest
// skips analysis.
func (r *Runner) Run(ctx context.Context, channel string, in Ingester) (Result, error) {
	return r.RunPeriod(ctx, channel, PeriodKey(r.now()), in)
}

// RunPeriod is Run with the period fixed by the caller, so both stages use
// the same key even when the clock crosses midnight between them.
func (r *Runner) RunPeriod(ctx context.Context, channel, period string, in Ingester) (Result, error) {
	if _, err := r.ingest(ctx, channel, period, in); err != nil {
		return Result{}, err
	}
	return r.analyze(ctx, channel, period)
}

// FileIngester reads records from a CSV or Parquet dataset file.
type FileIngester struct {
	Path string
}

func (f FileIngester) Ingest(ctx context.Context) ([]model.ContentRecord, error) {
	return dataset.Load(ctx, f.Path)
}

func (f FileIngester) Source() string { return "file" }

func sourceOf(in Ingester) string {
	if s, ok := in.(interface{ Source() string }); ok {
		return s.Source()
	}
	return "ingest"
}
