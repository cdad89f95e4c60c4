package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the YouTube Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// maxBatch is the largest page size and id list the Data API accepts.
const maxBatch = 50

// ErrQuota is returned when the API rejects a call because the project's
// daily quota is spent. Retrying before the quota resets is pointless.
var ErrQuota = errors.New("youtube: quota exceeded")

// Client is a minimal YouTube Data API client.
// Docs: https://developers.google.com/youtube/v3/docs
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Data API client. An empty baseURL selects the public
// endpoint; rps <= 0 disables pacing.
func NewClient(baseURL, apiKey string, rps float64) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: newLimiter(rps),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string   `json:"title"`
		PublishedAt string   `json:"publishedAt"`
		Tags        []string `json:"tags"`
	} `json:"snippet"`
	// counters are decimal strings; a hidden counter is omitted entirely
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// SearchChannelVideos returns up to limit video ids from a channel, newest
// first. It follows nextPageToken until limit ids are collected or the
// listing ends.
func (c *Client) SearchChannelVideos(ctx context.Context, channelID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = maxBatch
	}
	var ids []string
	pageToken := ""
	for len(ids) < limit {
		q := url.Values{
			"part":       {"id"},
			"channelId":  {channelID},
			"type":       {"video"},
			"order":      {"date"},
			"maxResults": {strconv.Itoa(min(maxBatch, limit-len(ids)))},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var resp searchResponse
		if err := c.get(ctx, "search", q, &resp); err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			if it.ID.VideoID != "" {
				ids = append(ids, it.ID.VideoID)
			}
		}
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	slog.Info("youtube: listed channel videos", "channel", channelID, "count", len(ids))
	return ids, nil
}

// ListVideoIDs lets the search endpoint act as a VideoLister.
func (c *Client) ListVideoIDs(ctx context.Context, channelID string, limit int) ([]string, error) {
	return c.SearchChannelVideos(ctx, channelID, limit)
}

// VideoDetails resolves ids to records in the order given. Ids the API no
// longer returns (deleted or private videos) are skipped.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]model.ContentRecord, error) {
	byID := make(map[string]videoItem, len(ids))
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		q := url.Values{
			"part": {"snippet,statistics,contentDetails"},
			"id":   {strings.Join(ids[start:end], ",")},
		}
		var resp videoListResponse
		if err := c.get(ctx, "videos", q, &resp); err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			byID[it.ID] = it
		}
	}

	out := make([]model.ContentRecord, 0, len(ids))
	for i, id := range ids {
		it, ok := byID[id]
		if !ok {
			slog.Debug("youtube: video not returned, skipping", "id", id)
			continue
		}
		rec, err := convertVideo(i, it)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, resource string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resource, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError turns a non-2xx response into an error, mapping quota
// exhaustion to ErrQuota.
func statusError(resource string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	if resp.StatusCode == http.StatusForbidden {
		for _, e := range ae.Error.Errors {
			switch e.Reason {
			case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded":
				return fmt.Errorf("%w: %s", ErrQuota, e.Reason)
			}
		}
	}
	if ae.Error.Message != "" {
		return fmt.Errorf("youtube: %s status %d: %s", resource, resp.StatusCode, ae.Error.Message)
	}
	return fmt.Errorf("youtube: %s status %d", resource, resp.StatusCode)
}

// convertVideo maps a videos.list item onto the record schema. row is the
// item's position in the requested id list.
func convertVideo(row int, it videoItem) (model.ContentRecord, error) {
	rec := model.ContentRecord{
		ID:    it.ID,
		Title: it.Snippet.Title,
		Tags:  it.Snippet.Tags,
	}
	fail := func(field string, value any, err error) (model.ContentRecord, error) {
		re := validation.NewRecordError(row, field, value, "%v", err)
		re.ID = it.ID
		return model.ContentRecord{}, re
	}

	if s := it.Snippet.PublishedAt; s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fail("published_at", s, errors.New("not an RFC 3339 timestamp"))
		}
		rec.PublishedAt = t.UTC()
	}
	dur, err := ParseISODuration(it.ContentDetails.Duration)
	if err != nil {
		return fail("duration_sec", it.ContentDetails.Duration, err)
	}
	rec.DurationSec = dur

	counters := []struct {
		field string
		raw   string
		dst   *int64
	}{
		{"views", it.Statistics.ViewCount, &rec.Views},
		{"likes", it.Statistics.LikeCount, &rec.Likes},
		{"comments", it.Statistics.CommentCount, &rec.Comments},
	}
	for _, ctr := range counters {
		n, err := parseCounter(ctr.raw)
		if err != nil {
			return fail(ctr.field, ctr.raw, err)
		}
		*ctr.dst = n
	}
	if err := validation.ValidateRecord(row, rec); err != nil {
		return model.ContentRecord{}, err
	}
	return rec, nil
}

// parseCounter reads a statistics counter. Hidden counters are absent and
// count as zero.
func parseCounter(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("malformed counter %q", s)
	}
	return n, nil
}
