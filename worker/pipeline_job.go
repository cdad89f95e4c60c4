package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"engagement-optimizer/internal/metrics"
	"engagement-optimizer/internal/pipeline"
	"engagement-optimizer/internal/report"
)

// DoneMarker records which periods a channel has completed.
type DoneMarker interface {
	IsDone(ctx context.Context, channel, period string) (bool, error)
	MarkDone(ctx context.Context, channel, period string) error
}

// PipelineJob runs a channel's daily pipeline once per period, after the
// configured time of day.
type PipelineJob struct {
	Runner   *pipeline.Runner
	Marker   DoneMarker
	Ingester pipeline.Ingester
	Channel  string
	RunAt    time.Duration // offset from local midnight
	Location *time.Location
	Interval time.Duration // how often to check whether a run is due
	// OutputDir receives <channel>/daily-YYYYMMDD.md, dated in Location.
	OutputDir  string
	Title      string
	DisplayTop int
	Now        func() time.Time
}

func (w *PipelineJob) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 10 * time.Minute
	}
	if err := os.MkdirAll(filepath.Join(w.OutputDir, w.Channel), 0o755); err != nil {
		return err
	}
	// run immediately then on interval
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *PipelineJob) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *PipelineJob) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// due reports whether now is at or past today's run time in the job's zone.
func (w *PipelineJob) due(now time.Time) bool {
	loc := w.location()
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return !local.Before(midnight.Add(w.RunAt))
}

func (w *PipelineJob) runOnce(ctx context.Context) {
	now := w.now()
	if !w.due(now) {
		return
	}
	// the period is the local day that run_at belongs to
	local := now.In(w.location())
	period := pipeline.LocalPeriodKey(local, w.location())
	done, err := w.Marker.IsDone(ctx, w.Channel, period)
	if err != nil {
		slog.Error("job: check done", "channel", w.Channel, "period", period, "err", err)
		return
	}
	if done {
		return
	}

	res, err := w.Runner.RunPeriod(ctx, w.Channel, period, w.Ingester)
	if err != nil {
		slog.Error("job: pipeline failed, retrying at next check", "channel", w.Channel, "period", period, "err", err)
		return
	}
	path, err := w.writeReport(res, local)
	metrics.RecordStage(metrics.StageReport, "store", err)
	if err != nil {
		slog.Error("job: write report", "channel", w.Channel, "err", err)
		return
	}
	if err := w.Marker.MarkDone(ctx, w.Channel, period); err != nil {
		slog.Error("job: mark done", "channel", w.Channel, "period", period, "err", err)
		return
	}
	slog.Info("job: report written", "channel", w.Channel, "path", path, "run_id", res.RunID, "records", len(res.Ranked))
}

func (w *PipelineJob) writeReport(res pipeline.Result, now time.Time) (string, error) {
	md, err := report.Render(report.NewData(res, w.DisplayTop, w.Title, now))
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	dir := filepath.Join(w.OutputDir, w.Channel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.FileName(now))
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
