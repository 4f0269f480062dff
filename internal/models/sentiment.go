package models

import "time"

// FearGreedReading is one Fear & Greed index value
type FearGreedReading struct {
	Value           int       `json:"value"`
	Classification  string    `json:"value_classification"`
	Timestamp       time.Time `json:"timestamp"`
	TimeUntilUpdate string    `json:"time_until_update,omitempty"`
	Fallback        bool      `json:"fallback"`
}

// SentimentNoticeKind identifies why a sentiment notice was raised
type SentimentNoticeKind string

const (
	NoticeSignificantChange SentimentNoticeKind = "significant_change"
	NoticeExtremeFear       SentimentNoticeKind = "extreme_fear"
	NoticeExtremeGreed      SentimentNoticeKind = "extreme_greed"
)

// SentimentNotice is raised when the index moves sharply or enters an extreme
type SentimentNotice struct {
	Kind     SentimentNoticeKind `json:"kind"`
	Message  string              `json:"message"`
	Previous int                 `json:"previous"`
	Current  int                 `json:"current"`
}
