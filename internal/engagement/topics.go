package engagement

import (
	"sort"

	"engagement-optimizer/internal/model"
)

const (
	// DefaultCohortSize is how many top-ranked records feed topic suggestions.
	DefaultCohortSize = 50
	// DefaultTopTopics is how many topics are suggested.
	DefaultTopTopics = 5
)

// SuggestTopics counts tags across the first cohortSize ranked entries and
// returns the topN most frequent. Every occurrence counts, including repeats
// within one record. Equal counts keep the order in which the tag was first
// seen while scanning the cohort. Non-positive cohortSize or topN select the
// defaults.
func SuggestTopics(ranked []model.Ranked, cohortSize, topN int) []model.TopicCount {
	if cohortSize <= 0 {
		cohortSize = DefaultCohortSize
	}
	if topN <= 0 {
		topN = DefaultTopTopics
	}
	cohort := Top(ranked, cohortSize)

	index := map[string]int{}
	counts := make([]model.TopicCount, 0)
	for _, r := range cohort {
		for _, tag := range r.Record.Tags {
			i, ok := index[tag]
			if !ok {
				i = len(counts)
				index[tag] = i
				counts = append(counts, model.TopicCount{Tag: tag})
			}
			counts[i].Count++
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}
