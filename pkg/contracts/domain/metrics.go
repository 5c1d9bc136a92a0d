package domain

import "time"

// SeriesPoint is one normalized observation of a time-series metric.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrendDirection indicates which way a metric moved between the two
// halves of its observation window.
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// Trend is a percentage-change-plus-direction summary comparing the
// second half of a time-ordered series against the first half.
// Percentage is always non-negative; Direction carries the sign.
type Trend struct {
	Percentage float64        `json:"percentage"`
	Direction  TrendDirection `json:"direction"`
}

// MetricValue is a single summary entry: an aggregate value plus, for
// time-series metrics, the half-split trend. Scalar entries such as the
// campaign count carry no trend.
type MetricValue struct {
	Value float64 `json:"value"`
	Trend *Trend  `json:"trend,omitempty"`
}

// MetricsSummary maps metric keys to their aggregates. A metric whose
// source table, value column, or filtered series is missing has no entry
// at all; consumers must not assume presence of any given key.
type MetricsSummary map[string]MetricValue

// Get returns the entry for key and whether it is present, so callers can
// distinguish "zero" from "no data" without sentinel values.
func (s MetricsSummary) Get(key string) (MetricValue, bool) {
	v, ok := s[key]
	return v, ok
}
