package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"engagement-optimizer/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStage(t *testing.T) {
	okBefore := testutil.ToFloat64(PipelineRuns.WithLabelValues(StageIngest, "ok"))
	errBefore := testutil.ToFloat64(PipelineRuns.WithLabelValues(StageIngest, "error"))
	valBefore := testutil.ToFloat64(ValidationFailures.WithLabelValues("youtube"))

	RecordStage(StageIngest, "youtube", nil)
	RecordStage(StageIngest, "youtube", errors.New("network down"))
	RecordStage(StageIngest, "youtube", fmt.Errorf("row 3: %w", model.ErrInvalidRecord))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(PipelineRuns.WithLabelValues(StageIngest, "ok")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(PipelineRuns.WithLabelValues(StageIngest, "error")))
	assert.Equal(t, valBefore+1, testutil.ToFloat64(ValidationFailures.WithLabelValues("youtube")))
}

func TestRecordIngested(t *testing.T) {
	before := testutil.ToFloat64(RecordsIngested.WithLabelValues("metrics-test"))
	RecordIngested("metrics-test", 7)
	assert.Equal(t, before+7, testutil.ToFloat64(RecordsIngested.WithLabelValues("metrics-test")))
}

func TestObserveAndAPI(t *testing.T) {
	ObserveAnalysis(15 * time.Millisecond)
	RecordAPIRequest("GET", "/health", 200, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200")))
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer,
		"engagement_pipeline_runs_total", "engagement_analysis_duration_seconds")
	require.NoError(t, err)
	assert.Empty(t, problems)
}
