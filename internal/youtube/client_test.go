package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchChannelVideos_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "UC123", q.Get("channelId"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "date", q.Get("order"))
		assert.Equal(t, "k", q.Get("key"))
		switch q.Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"p2","items":[{"id":{"videoId":"a"}},{"id":{"videoId":"b"}}]}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"id":{"videoId":"c"}}]}`)
		default:
			t.Errorf("unexpected page token %q", q.Get("pageToken"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 0)
	ids, err := c.SearchChannelVideos(t.Context(), "UC123", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSearchChannelVideos_StopsAtLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
		fmt.Fprint(w, `{"nextPageToken":"more","items":[{"id":{"videoId":"a"}},{"id":{"videoId":"b"}}]}`)
	}))
	defer srv.Close()

	ids, err := NewClient(srv.URL, "", 0).SearchChannelVideos(t.Context(), "UC", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, int32(1), calls.Load())
}

func videoJSON(id string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":       "Video " + id,
			"publishedAt": "2025-01-02T03:04:05Z",
			"tags":        []string{"go", id},
		},
		// commentCount hidden
		"statistics": map[string]any{
			"viewCount": "100",
			"likeCount": "10",
		},
		"contentDetails": map[string]any{"duration": "PT1M30S"},
	}
}

func TestVideoDetails_BatchesAndKeepsOrder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "snippet,statistics,contentDetails", r.URL.Query().Get("part"))
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		assert.LessOrEqual(t, len(ids), 50)
		items := []map[string]any{}
		// reply in reverse order and drop one id to mimic a deleted video
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] == "v7" {
				continue
			}
			items = append(items, videoJSON(ids[i]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
	defer srv.Close()

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}
	recs, err := NewClient(srv.URL, "", 0).VideoDetails(t.Context(), ids)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, recs, 59)
	assert.Equal(t, "v0", recs[0].ID)
	assert.Equal(t, "v6", recs[6].ID)
	assert.Equal(t, "v8", recs[7].ID)
	assert.Equal(t, "v59", recs[58].ID)

	first := recs[0]
	assert.Equal(t, "Video v0", first.Title)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), first.PublishedAt)
	assert.Equal(t, int64(90), first.DurationSec)
	assert.Equal(t, int64(100), first.Views)
	assert.Equal(t, int64(10), first.Likes)
	assert.Equal(t, int64(0), first.Comments)
	assert.Equal(t, []string{"go", "v0"}, first.Tags)
}

func TestVideoDetails_MalformedCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := videoJSON("x")
		v["statistics"] = map[string]any{"viewCount": "12x"}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{v}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).VideoDetails(t.Context(), []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidRecord))
	var re *validation.RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "views", re.Field)
	assert.Equal(t, "x", re.ID)
}

func TestVideoDetails_MalformedDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := videoJSON("x")
		v["contentDetails"] = map[string]any{"duration": "90 seconds"}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{v}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).VideoDetails(t.Context(), []string{"x"})
	var re *validation.RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "duration_sec", re.Field)
}

func TestClient_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).SearchChannelVideos(t.Context(), "UC", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuota))
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).VideoDetails(t.Context(), []string{"a"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuota))
	assert.Contains(t, err.Error(), "status 500")
}

func TestParseCounter(t *testing.T) {
	n, err := parseCounter("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = parseCounter("12345")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), n)

	for _, bad := range []string{"-1", "1.5", "abc"} {
		_, err := parseCounter(bad)
		assert.Error(t, err, bad)
	}
}
