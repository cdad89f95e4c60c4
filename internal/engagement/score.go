// Package engagement scores, classifies, ranks and summarizes content records.
// Every function here is pure and safe to call concurrently on disjoint inputs.
package engagement

import "engagement-optimizer/internal/model"

// Signal weights, strongest last: sustained-attention views outweigh shares,
// shares outweigh comments, comments outweigh likes.
const (
	LikeWeight       = 1.0
	CommentWeight    = 1.5
	ShareWeight      = 2.0
	WatchRatioWeight = 3.0
)

// Breakdown shows how each term contributed to a score.
type Breakdown struct {
	Likes      float64 `json:"likes"`
	Comments   float64 `json:"comments"`
	Shares     float64 `json:"shares"`
	WatchRatio float64 `json:"watch_ratio"`
	Retention  float64 `json:"retention"`
	Total      float64 `json:"total"`
}

// Score computes the composite engagement score.
// durationSec may be 0; the ratio denominator is floored to 1.
func Score(views, likes, comments, shares int64, avgViewDurationSec float64, durationSec int64) float64 {
	return ScoreWithBreakdown(views, likes, comments, shares, avgViewDurationSec, durationSec).Total
}

// ScoreWithBreakdown computes the score along with its per-term contributions.
func ScoreWithBreakdown(views, likes, comments, shares int64, avgViewDurationSec float64, durationSec int64) Breakdown {
	ratio := WatchRatio(avgViewDurationSec, durationSec)
	b := Breakdown{
		Likes:      LikeWeight * float64(likes),
		Comments:   CommentWeight * float64(comments),
		Shares:     ShareWeight * float64(shares),
		WatchRatio: ratio,
		Retention:  WatchRatioWeight * ratio * float64(views),
	}
	b.Total = b.Likes + b.Comments + b.Shares + b.Retention
	return b
}

// ScoreRecord scores a record from its raw counters.
func ScoreRecord(r model.ContentRecord) float64 {
	return Score(r.Views, r.Likes, r.Comments, r.Shares, r.AvgViewDurationSec, r.DurationSec)
}

// WatchRatio is the average watch time over the total duration. It is not
// clamped above 1 when the inputs disagree.
func WatchRatio(avgViewDurationSec float64, durationSec int64) float64 {
	denom := durationSec
	if denom < 1 {
		denom = 1
	}
	return avgViewDurationSec / float64(denom)
}
