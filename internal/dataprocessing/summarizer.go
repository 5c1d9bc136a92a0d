package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pushpulse/pkg/contracts/domain"
)

// Aggregation selects how a metric's filtered series collapses to one value.
type Aggregation string

const (
	// AggSum totals the series; used for volume metrics (sends, revenue).
	AggSum Aggregation = "sum"
	// AggMean averages the series; used for rate and ratio metrics.
	AggMean Aggregation = "mean"
)

// MetricSpec binds one metric key to the file and column that supply it and
// the aggregation rule that collapses it. Resolution happens once per
// summarization call; both patterns match case-insensitively by substring.
type MetricSpec struct {
	Key           string
	FilePattern   string
	ColumnPattern string
	Aggregation   Aggregation
}

// MetricCampaignCount is the scalar entry counting distinct campaign rows.
// It is derived from the campaign performance table and carries no trend.
const MetricCampaignCount = "campaign_count"

// campaignFilePattern locates the campaign performance table by file name.
const campaignFilePattern = "campaign"

// DefaultMetricSpecs returns the metric registry for Bloomreach-style
// mobile push exports. Keys follow the upstream summary report layout.
func DefaultMetricSpecs() []MetricSpec {
	return []MetricSpec{
		{Key: "total_sends", FilePattern: "send", ColumnPattern: "send", Aggregation: AggSum},
		{Key: "delivery_rate", FilePattern: "deliveryrate", ColumnPattern: "delivery", Aggregation: AggMean},
		{Key: "open_rate", FilePattern: "openrate", ColumnPattern: "open", Aggregation: AggMean},
		{Key: "ctr", FilePattern: "ctr", ColumnPattern: "ctr", Aggregation: AggMean},
		{Key: "total_purchases", FilePattern: "noofpurchases", ColumnPattern: "purchase", Aggregation: AggSum},
		{Key: "total_buyers", FilePattern: "customerswithpurchases", ColumnPattern: "buyer", Aggregation: AggSum},
		{Key: "total_revenue", FilePattern: "revenue", ColumnPattern: "revenue", Aggregation: AggSum},
		{Key: "optout_rate", FilePattern: "optout", ColumnPattern: "optout", Aggregation: AggMean},
		{Key: "avg_aov", FilePattern: "aov", ColumnPattern: "aov", Aggregation: AggMean},
	}
}

// DateRange filters series rows to start <= timestamp <= end, inclusive on
// both bounds.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the range, bounds included.
func (r DateRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && !ts.After(r.End)
}

// Summarizer computes per-metric aggregates and half-split trends from a
// session's uploaded tables. It holds no mutable state beyond its registry,
// so a single instance serves any number of concurrent calls.
type Summarizer struct {
	logger *slog.Logger
	specs  []MetricSpec
}

// NewSummarizer creates a summarizer over the given metric registry.
// A nil logger falls back to slog.Default; empty specs fall back to the
// default registry.
func NewSummarizer(logger *slog.Logger, specs []MetricSpec) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(specs) == 0 {
		specs = DefaultMetricSpecs()
	}
	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
		specs:  specs,
	}
}

// Summarize rebuilds the full metrics summary from the uploaded tables and
// the optional date range. The result is a fresh mapping on every call;
// metrics whose table, value column, or filtered series is missing are
// omitted entirely rather than zero-filled. Pure function of its inputs.
func (s *Summarizer) Summarize(ctx context.Context, tables map[string]domain.NamedTable, dateRange *DateRange) domain.MetricsSummary {
	summary := make(domain.MetricsSummary, len(s.specs)+1)

	for _, spec := range s.specs {
		points, ok := s.resolveSeries(tables, spec, dateRange)
		if !ok || len(points) == 0 {
			continue
		}

		value := aggregate(points, spec.Aggregation)
		trend := halfSplitTrend(points, spec.Aggregation)
		summary[spec.Key] = domain.MetricValue{Value: value, Trend: &trend}
	}

	if rows, ok := s.campaignRows(tables); ok && len(rows) > 0 {
		summary[MetricCampaignCount] = domain.MetricValue{Value: float64(countDistinctCampaigns(rows))}
	}

	s.logger.DebugContext(ctx, "summary computed",
		slog.Int("table_count", len(tables)),
		slog.Int("metric_count", len(summary)),
		slog.Bool("filtered", dateRange != nil))

	return summary
}

// SeriesFor returns the sorted, date-filtered series backing the given
// metric key, for chart rendering. The second return is false when the
// metric cannot be resolved from the uploaded tables.
func (s *Summarizer) SeriesFor(tables map[string]domain.NamedTable, key string, dateRange *DateRange) ([]domain.SeriesPoint, bool) {
	for _, spec := range s.specs {
		if spec.Key != key {
			continue
		}
		points, ok := s.resolveSeries(tables, spec, dateRange)
		if !ok {
			return nil, false
		}
		return points, true
	}
	return nil, false
}

// CampaignRows returns the normalized campaign performance rows, sorted by
// delivered count descending. False when no campaign table was uploaded.
func (s *Summarizer) CampaignRows(tables map[string]domain.NamedTable) ([]domain.CampaignRow, bool) {
	rows, ok := s.campaignRows(tables)
	if !ok {
		return nil, false
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Delivered > rows[j].Delivered
	})
	return rows, true
}

// MetricKeys returns the registry's metric keys in registration order.
func (s *Summarizer) MetricKeys() []string {
	keys := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		keys = append(keys, spec.Key)
	}
	return keys
}

func (s *Summarizer) resolveSeries(tables map[string]domain.NamedTable, spec MetricSpec, dateRange *DateRange) ([]domain.SeriesPoint, bool) {
	table, ok := findTable(tables, spec.FilePattern)
	if !ok {
		return nil, false
	}
	points, ok := SeriesFromTable(table, spec.ColumnPattern)
	if !ok {
		return nil, false
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return FilterRange(points, dateRange), true
}

func (s *Summarizer) campaignRows(tables map[string]domain.NamedTable) ([]domain.CampaignRow, bool) {
	table, ok := findTable(tables, campaignFilePattern)
	if !ok {
		return nil, false
	}
	return CampaignsFromTable(table), true
}

// findTable locates the table whose file name contains pattern,
// case-insensitively. Names are scanned in sorted order so resolution is
// deterministic when several uploads match.
func findTable(tables map[string]domain.NamedTable, pattern string) (domain.NamedTable, bool) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	pattern = strings.ToLower(pattern)
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), pattern) {
			return tables[name], true
		}
	}
	return domain.NamedTable{}, false
}

// FilterRange returns the points whose timestamps fall inside r, bounds
// inclusive. A nil range passes everything through. Filtering an
// already-filtered series with the same range is a no-op.
func FilterRange(points []domain.SeriesPoint, r *DateRange) []domain.SeriesPoint {
	if r == nil {
		return points
	}
	filtered := make([]domain.SeriesPoint, 0, len(points))
	for _, p := range points {
		if r.Contains(p.Timestamp) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ComputeTrend compares the current period aggregate against the previous
// one. A zero previous value with positive current reads as a full 100%
// rise; zero against zero is neutral. Percentage is reported as an
// absolute value, with direction carrying the sign.
func ComputeTrend(current, previous float64) domain.Trend {
	if previous == 0 {
		if current > 0 {
			return domain.Trend{Percentage: 100.0, Direction: domain.TrendUp}
		}
		return domain.Trend{Percentage: 0.0, Direction: domain.TrendNeutral}
	}

	change := (current - previous) / previous * 100
	direction := domain.TrendNeutral
	switch {
	case change > 0:
		direction = domain.TrendUp
	case change < 0:
		direction = domain.TrendDown
	}
	if change < 0 {
		change = -change
	}
	return domain.Trend{Percentage: change, Direction: direction}
}

// halfSplitTrend splits the sorted series at the floor midpoint (the
// second half is one row larger for odd lengths), aggregates each half
// with the metric's own rule, and compares second half against first.
// A single-row series has no meaningful split and reads as neutral.
func halfSplitTrend(points []domain.SeriesPoint, agg Aggregation) domain.Trend {
	if len(points) < 2 {
		return domain.Trend{Percentage: 0, Direction: domain.TrendNeutral}
	}
	mid := len(points) / 2
	previous := aggregate(points[:mid], agg)
	current := aggregate(points[mid:], agg)
	return ComputeTrend(current, previous)
}

func aggregate(points []domain.SeriesPoint, agg Aggregation) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	if agg == AggMean {
		return sum / float64(len(points))
	}
	return sum
}

func countDistinctCampaigns(rows []domain.CampaignRow) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		seen[row.Name] = struct{}{}
	}
	return len(seen)
}
