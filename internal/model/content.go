package model

import (
	"errors"
	"time"
)

// ErrInvalidRecord marks input that does not satisfy the ContentRecord schema.
// Callers use errors.Is to tell "bad input" apart from "no data".
var ErrInvalidRecord = errors.New("invalid content record")

// ContentType is the duration-based label of a content item.
type ContentType string

const (
	ContentTypeShort ContentType = "short"
	ContentTypeVideo ContentType = "video"
)

// ContentRecord is one analyzable content item as delivered by ingestion.
type ContentRecord struct {
	ID                 string    `json:"video_id" validate:"required"`
	Title              string    `json:"title"`
	PublishedAt        time.Time `json:"published_at"`
	DurationSec        int64     `json:"duration_sec" validate:"gte=0"`
	Views              int64     `json:"views" validate:"gte=0"`
	Likes              int64     `json:"likes" validate:"gte=0"`
	Comments           int64     `json:"comments" validate:"gte=0"`
	Shares             int64     `json:"shares" validate:"gte=0"`
	AvgViewDurationSec float64   `json:"average_view_duration_sec" validate:"finite,gte=0"`
	Tags               []string  `json:"tags"`
}

// Ranked decorates a record with the values derived on a ranking pass.
type Ranked struct {
	Record      ContentRecord `json:"record"`
	ContentType ContentType   `json:"content_type"`
	Score       float64       `json:"engagement_score"`
}

// TopicCount is one suggested topic and how often it appeared in the cohort.
type TopicCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// Analysis is the stored outcome of one analysis run for a channel.
type Analysis struct {
	RunID       string       `json:"run_id"`
	Channel     string       `json:"channel"`
	Period      string       `json:"period"`
	GeneratedAt time.Time    `json:"generated_at"`
	Ranked      []Ranked     `json:"ranked"`
	Topics      []TopicCount `json:"topics"`
	Ideas       string       `json:"ideas,omitempty"`
}
