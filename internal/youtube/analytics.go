package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultAnalyticsBaseURL is the YouTube Analytics API v2 root.
const DefaultAnalyticsBaseURL = "https://youtubeanalytics.googleapis.com/v2"

// VideoMetrics holds the per-video numbers only the Analytics API exposes.
type VideoMetrics struct {
	Shares             int64
	AvgViewDurationSec float64
}

// AnalyticsClient reads channel reports with an OAuth bearer token.
// Docs: https://developers.google.com/youtube/analytics/reference/reports/query
type AnalyticsClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

func NewAnalyticsClient(baseURL, token string, rps float64) *AnalyticsClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAnalyticsBaseURL
	}
	return &AnalyticsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: newLimiter(rps),
	}
}

type reportResponse struct {
	ColumnHeaders []struct {
		Name string `json:"name"`
	} `json:"columnHeaders"`
	Rows [][]any `json:"rows"`
}

// VideoMetrics returns shares and average view duration for ids over the
// [start, end] date window. Videos without activity are absent from the map.
func (a *AnalyticsClient) VideoMetrics(ctx context.Context, channelID string, ids []string, start, end time.Time) (map[string]VideoMetrics, error) {
	out := make(map[string]VideoMetrics, len(ids))
	owner := "channel==MINE"
	if channelID != "" {
		owner = "channel==" + channelID
	}
	for lo := 0; lo < len(ids); lo += maxBatch {
		hi := min(lo+maxBatch, len(ids))
		q := url.Values{
			"ids":        {owner},
			"startDate":  {start.UTC().Format("2006-01-02")},
			"endDate":    {end.UTC().Format("2006-01-02")},
			"metrics":    {"shares,averageViewDuration"},
			"dimensions": {"video"},
			"filters":    {"video==" + strings.Join(ids[lo:hi], ",")},
		}
		var rep reportResponse
		if err := a.get(ctx, q, &rep); err != nil {
			return nil, err
		}
		if err := collectRows(rep, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *AnalyticsClient) get(ctx context.Context, q url.Values, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/reports?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("reports", resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func collectRows(rep reportResponse, out map[string]VideoMetrics) error {
	col := map[string]int{}
	for i, h := range rep.ColumnHeaders {
		col[h.Name] = i
	}
	vi, ok1 := col["video"]
	si, ok2 := col["shares"]
	di, ok3 := col["averageViewDuration"]
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("youtube: report is missing expected columns")
	}
	for _, row := range rep.Rows {
		if len(row) <= max(vi, si, di) {
			return fmt.Errorf("youtube: short report row %v", row)
		}
		id, _ := row[vi].(string)
		shares, okS := row[si].(float64)
		avg, okD := row[di].(float64)
		if id == "" || !okS || !okD || shares < 0 || avg < 0 {
			return fmt.Errorf("youtube: malformed report row %v", row)
		}
		out[id] = VideoMetrics{Shares: int64(shares), AvgViewDurationSec: avg}
	}
	return nil
}
