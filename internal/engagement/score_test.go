package engagement

import (
	"testing"

	"engagement-optimizer/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Formula(t *testing.T) {
	// 10 likes + 1.5*4 comments + 2*3 shares + 3*(30/60)*100 views
	got := Score(100, 10, 4, 3, 30, 60)
	assert.InDelta(t, 10+6+6+150, got, 1e-9)
}

func TestScore_ZeroDurationFloor(t *testing.T) {
	cases := []struct {
		v, l, c, s int64
		w          float64
	}{
		{0, 0, 0, 0, 0},
		{100, 10, 2, 1, 12.5},
		{5, 0, 0, 0, 3},
		{1_000_000, 40_000, 1_200, 300, 0.4},
	}
	for _, c := range cases {
		assert.Equal(t, Score(c.v, c.l, c.c, c.s, c.w, 1), Score(c.v, c.l, c.c, c.s, c.w, 0))
	}
}

func TestScore_Monotonic(t *testing.T) {
	const v, w, d = 500, 40.0, 120
	for base := int64(0); base < 50; base += 7 {
		for delta := int64(0); delta < 20; delta += 3 {
			assert.LessOrEqual(t, Score(v, base, 3, 3, w, d), Score(v, base+delta, 3, 3, w, d), "likes")
			assert.LessOrEqual(t, Score(v, 3, base, 3, w, d), Score(v, 3, base+delta, 3, w, d), "comments")
			assert.LessOrEqual(t, Score(v, 3, 3, base, w, d), Score(v, 3, 3, base+delta, w, d), "shares")
		}
	}
}

func TestScore_WeightOrdering(t *testing.T) {
	like := Score(0, 1, 0, 0, 0, 60)
	comment := Score(0, 0, 1, 0, 0, 60)
	share := Score(0, 0, 0, 1, 0, 60)
	assert.Less(t, like, comment)
	assert.Less(t, comment, share)
}

func TestWatchRatio_NotClamped(t *testing.T) {
	// Inconsistent input (watch time beyond duration) is accepted as-is.
	assert.Equal(t, 2.0, WatchRatio(120, 60))
	assert.Equal(t, 45.0, WatchRatio(45, 0))
}

func TestScoreWithBreakdown(t *testing.T) {
	b := ScoreWithBreakdown(100, 10, 0, 5, 30, 60)
	require.InDelta(t, 0.5, b.WatchRatio, 1e-9)
	assert.InDelta(t, 10.0, b.Likes, 1e-9)
	assert.InDelta(t, 10.0, b.Shares, 1e-9)
	assert.InDelta(t, 150.0, b.Retention, 1e-9)
	assert.InDelta(t, 170.0, b.Total, 1e-9)
}

func TestScoreRecord(t *testing.T) {
	r := model.ContentRecord{ID: "a", Views: 100, Likes: 10, DurationSec: 60, AvgViewDurationSec: 30}
	assert.InDelta(t, 160.0, ScoreRecord(r), 1e-9)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.ContentTypeShort, Classify(59))
	assert.Equal(t, model.ContentTypeVideo, Classify(60))
	assert.Equal(t, model.ContentTypeShort, Classify(0))
	assert.Equal(t, model.ContentTypeShort, Classify(45))
	assert.Equal(t, model.ContentTypeVideo, Classify(90))
}
