package engagement

import "engagement-optimizer/internal/model"

// ShortMaxSec is the exclusive upper bound, in seconds, for a short.
const ShortMaxSec = 60

// Classify labels content under 60 seconds as a short and everything else as a video.
func Classify(durationSec int64) model.ContentType {
	if durationSec < ShortMaxSec {
		return model.ContentTypeShort
	}
	return model.ContentTypeVideo
}
