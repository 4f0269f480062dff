// Package sentiment validates Fear & Greed index responses and turns
// readings into band labels and change notices.
package sentiment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const (
	// DefaultTimeUntilUpdate is used when the upstream omits the countdown
	DefaultTimeUntilUpdate = "24:00:00"

	SignificantChange = 10
	ExtremeFearMax    = 10
	ExtremeGreedMin   = 90
)

// APIResponse is the alternative.me /fng/ payload
type APIResponse struct {
	Name     string       `json:"name"`
	Data     []APIReading `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// APIReading is one entry of APIResponse.Data. Every field is a string upstream.
type APIReading struct {
	Value               string `json:"value"`
	ValueClassification string `json:"value_classification"`
	Timestamp           string `json:"timestamp"`
	TimeUntilUpdate     string `json:"time_until_update"`
}

// Parse validates a response and returns its latest reading.
// now stamps readings whose timestamp cannot be parsed.
func Parse(resp *APIResponse, now time.Time) (models.FearGreedReading, error) {
	if resp == nil {
		return models.FearGreedReading{}, fmt.Errorf("%w: empty response", models.ErrInvalidFearGreed)
	}
	if resp.Metadata.Error != nil && *resp.Metadata.Error != "" {
		return models.FearGreedReading{}, fmt.Errorf("%w: upstream error: %s", models.ErrInvalidFearGreed, *resp.Metadata.Error)
	}
	if len(resp.Data) == 0 {
		return models.FearGreedReading{}, fmt.Errorf("%w: no data", models.ErrInvalidFearGreed)
	}

	latest := resp.Data[0]
	if latest.Value == "" || latest.ValueClassification == "" || latest.Timestamp == "" {
		return models.FearGreedReading{}, fmt.Errorf("%w: incomplete reading", models.ErrInvalidFearGreed)
	}

	value, err := strconv.Atoi(strings.TrimSpace(latest.Value))
	if err != nil {
		return models.FearGreedReading{}, fmt.Errorf("%w: value %q is not an integer", models.ErrInvalidFearGreed, latest.Value)
	}
	if value < 0 || value > 100 {
		return models.FearGreedReading{}, fmt.Errorf("%w: value %d out of range", models.ErrInvalidFearGreed, value)
	}

	until := latest.TimeUntilUpdate
	if until == "" {
		until = DefaultTimeUntilUpdate
	}

	return models.FearGreedReading{
		Value:           value,
		Classification:  latest.ValueClassification,
		Timestamp:       parseTimestamp(latest.Timestamp, now),
		TimeUntilUpdate: until,
	}, nil
}

// parseTimestamp accepts unix seconds or the MM-DD-YYYY form returned with date_format=us
func parseTimestamp(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	if t, err := time.Parse("01-02-2006", raw); err == nil {
		return t
	}
	return now.UTC()
}

// Fallback is served when the index cannot be fetched
func Fallback(now time.Time) models.FearGreedReading {
	return models.FearGreedReading{
		Value:           50,
		Classification:  "Neutral",
		Timestamp:       now.UTC(),
		TimeUntilUpdate: DefaultTimeUntilUpdate,
		Fallback:        true,
	}
}

// Band returns the sentiment label for an index value
func Band(value int) string {
	switch {
	case value <= 10:
		return "total panic"
	case value <= 25:
		return "extreme fear"
	case value <= 45:
		return "fear"
	case value <= 55:
		return "neutral"
	case value <= 75:
		return "greed"
	case value <= 90:
		return "extreme greed"
	default:
		return "euphoria"
	}
}

// Notices compares two readings. Nothing is raised without a previous
// reading, when either side is a fallback, or when the value is unchanged.
func Notices(prev *models.FearGreedReading, cur models.FearGreedReading) []models.SentimentNotice {
	if prev == nil || prev.Fallback || cur.Fallback || prev.Value == cur.Value {
		return nil
	}

	var notices []models.SentimentNotice
	change := cur.Value - prev.Value
	if change >= SignificantChange || change <= -SignificantChange {
		direction := "rose"
		if change < 0 {
			direction = "fell"
		}
		notices = append(notices, models.SentimentNotice{
			Kind:     models.NoticeSignificantChange,
			Message:  fmt.Sprintf("Fear & Greed index %s from %d to %d (%+d points)", direction, prev.Value, cur.Value, change),
			Previous: prev.Value,
			Current:  cur.Value,
		})
	}

	switch {
	case cur.Value <= ExtremeFearMax:
		notices = append(notices, models.SentimentNotice{
			Kind:     models.NoticeExtremeFear,
			Message:  fmt.Sprintf("Extreme fear at %d, a possible buying opportunity", cur.Value),
			Previous: prev.Value,
			Current:  cur.Value,
		})
	case cur.Value >= ExtremeGreedMin:
		notices = append(notices, models.SentimentNotice{
			Kind:     models.NoticeExtremeGreed,
			Message:  fmt.Sprintf("Extreme greed at %d, watch for a correction", cur.Value),
			Previous: prev.Value,
			Current:  cur.Value,
		})
	}
	return notices
}
