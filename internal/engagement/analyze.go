package engagement

import (
	"engagement-optimizer/internal/model"
	"engagement-optimizer/internal/validation"
)

// Options tunes an analysis pass. Zero values select the defaults.
type Options struct {
	CohortSize int
	TopTopics  int
}

// Result is the ranked collection plus the topics suggested from its head.
type Result struct {
	Ranked []model.Ranked
	Topics []model.TopicCount
}

// Analyze validates every record, then ranks them and suggests topics.
// A validation failure is returned as-is (it wraps model.ErrInvalidRecord)
// and no partial result is produced. An empty input is a valid, empty result.
func Analyze(records []model.ContentRecord, opts Options) (Result, error) {
	for i := range records {
		if err := validation.ValidateRecord(i, records[i]); err != nil {
			return Result{}, err
		}
	}
	ranked := Rank(records)
	return Result{
		Ranked: ranked,
		Topics: SuggestTopics(ranked, opts.CohortSize, opts.TopTopics),
	}, nil
}
