package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"engagement-optimizer/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) ListVideoIDs(context.Context, string, int) ([]string, error) {
	return f.ids, f.err
}

type fakeDetails struct{ published map[string]time.Time }

func (f fakeDetails) VideoDetails(_ context.Context, ids []string) ([]model.ContentRecord, error) {
	out := make([]model.ContentRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.ContentRecord{ID: id, Views: 100, DurationSec: 60, PublishedAt: f.published[id]})
	}
	return out, nil
}

type fakeMetrics struct {
	got struct {
		ids        []string
		start, end time.Time
	}
	data map[string]VideoMetrics
}

func (f *fakeMetrics) VideoMetrics(_ context.Context, _ string, ids []string, start, end time.Time) (map[string]VideoMetrics, error) {
	f.got.ids, f.got.start, f.got.end = ids, start, end
	return f.data, nil
}

func TestIngester_WithoutAnalytics(t *testing.T) {
	in := &Ingester{
		ChannelID: "UC1",
		Lister:    fakeLister{ids: []string{"a", "b"}},
		Details:   fakeDetails{},
	}
	recs, err := in.Ingest(t.Context())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, int64(0), r.Shares)
		assert.Equal(t, 0.0, r.AvgViewDurationSec)
	}
}

func TestIngester_EnrichesFromAnalytics(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	oldest := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	m := &fakeMetrics{data: map[string]VideoMetrics{
		"a": {Shares: 4, AvgViewDurationSec: 33.5},
	}}
	in := &Ingester{
		ChannelID: "UC1",
		Lister:    fakeLister{ids: []string{"a", "b"}},
		Details: fakeDetails{published: map[string]time.Time{
			"a": time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			"b": oldest,
		}},
		Metrics: m,
		Now:     func() time.Time { return now },
	}
	recs, err := in.Ingest(t.Context())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(4), recs[0].Shares)
	assert.Equal(t, 33.5, recs[0].AvgViewDurationSec)
	assert.Equal(t, int64(0), recs[1].Shares, "videos without analytics rows keep zero")

	assert.Equal(t, []string{"a", "b"}, m.got.ids)
	assert.Equal(t, oldest, m.got.start)
	assert.Equal(t, now, m.got.end)
}

func TestIngester_EmptyChannel(t *testing.T) {
	in := &Ingester{ChannelID: "UC1", Lister: fakeLister{}, Details: fakeDetails{}}
	recs, err := in.Ingest(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestIngester_ListError(t *testing.T) {
	in := &Ingester{ChannelID: "UC1", Lister: fakeLister{err: ErrQuota}, Details: fakeDetails{}}
	_, err := in.Ingest(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuota))
}

func TestAnalyticsClient_VideoMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "channel==UC1", q.Get("ids"))
		assert.Equal(t, "video==a,b", q.Get("filters"))
		assert.Equal(t, "2025-02-01", q.Get("startDate"))
		assert.Equal(t, "2025-03-10", q.Get("endDate"))
		fmt.Fprint(w, `{
			"columnHeaders":[{"name":"video"},{"name":"shares"},{"name":"averageViewDuration"}],
			"rows":[["a", 7, 41.5],["b", 0, 12]]
		}`)
	}))
	defer srv.Close()

	ac := NewAnalyticsClient(srv.URL, "tok", 0)
	got, err := ac.VideoMetrics(t.Context(), "UC1", []string{"a", "b"},
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[string]VideoMetrics{
		"a": {Shares: 7, AvgViewDurationSec: 41.5},
		"b": {Shares: 0, AvgViewDurationSec: 12},
	}, got)
}

func TestAnalyticsClient_MissingColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"columnHeaders":[{"name":"video"}],"rows":[]}`)
	}))
	defer srv.Close()

	_, err := NewAnalyticsClient(srv.URL, "tok", 0).VideoMetrics(t.Context(), "", []string{"a"}, time.Now(), time.Now())
	require.Error(t, err)
}
