package engagement

import (
	"sort"

	"engagement-optimizer/internal/model"
)

// Rank scores and classifies every record and orders the result by score,
// highest first. Records with equal scores keep their input order.
// The input slice and its records are left untouched.
func Rank(records []model.ContentRecord) []model.Ranked {
	out := make([]model.Ranked, 0, len(records))
	for _, r := range records {
		rec := r
		if rec.Tags != nil {
			rec.Tags = append([]string(nil), rec.Tags...)
		}
		out = append(out, model.Ranked{
			Record:      rec,
			ContentType: Classify(rec.DurationSec),
			Score:       ScoreRecord(rec),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns at most n leading entries of a ranking.
func Top(ranked []model.Ranked, n int) []model.Ranked {
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
