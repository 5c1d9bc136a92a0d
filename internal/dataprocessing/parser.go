package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"pushpulse/internal/errors"
	"pushpulse/pkg/contracts/domain"
)

// timestampLayouts are tried in order; the first successful parse wins.
// MM/DD/YYYY is deliberately attempted before DD/MM/YYYY, so "03/04/2024"
// always reads month-first. Inherited from the upstream exports, which are
// US-formatted; revisit if non-US data sources appear.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// fallbackLayouts cover the long tail of formats seen in ad-hoc exports.
// Tried only after every primary layout has failed.
var fallbackLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	"2006/01/02",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// ParsePercentage parses a raw cell value as a percentage figure:
// "95.5%" -> 95.5, "0.5%" -> 0.5. Nil and empty input yield 0, as does
// anything that fails numeric parsing. It is total and idempotent, so an
// already-normalized float passes through unchanged.
func ParsePercentage(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}

	s := strings.TrimSpace(fmt.Sprintf("%v", raw))
	if s == "" {
		return 0
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseTimestamp parses a raw cell value against the known timestamp
// layouts, falling back to a best-effort pass over common formats. The
// second return is false when the value is nil, empty, or matches nothing.
// An already-parsed time.Time passes through unchanged.
func ParseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, true
	}

	s := strings.TrimSpace(fmt.Sprintf("%v", raw))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReadTable reads CSV content into a NamedTable. The first record is the
// header row; headers are trimmed and duplicate-tolerant (last one wins).
// Short rows are padded with empty cells, long rows truncated.
func ReadTable(name string, r io.Reader) (domain.NamedTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return domain.NamedTable{}, errors.NewParsingError(
			fmt.Sprintf("failed to read CSV content of %s", name), err)
	}
	return tableFromRecords(name, records), nil
}

// ReadWorkbookTable reads the first sheet of an Excel workbook into a
// NamedTable, so .xlsx exports can be uploaded alongside plain CSV.
func ReadWorkbookTable(name string, r io.Reader) (domain.NamedTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.NamedTable{}, errors.NewParsingError(
			fmt.Sprintf("failed to open workbook %s", name), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.NamedTable{}, errors.NewParsingError(
			fmt.Sprintf("workbook %s has no sheets", name), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.NamedTable{}, errors.NewParsingError(
			fmt.Sprintf("failed to read sheet %q of %s", sheets[0], name), err)
	}
	return tableFromRecords(name, rows), nil
}

func tableFromRecords(name string, records [][]string) domain.NamedTable {
	table := domain.NamedTable{Name: name}
	if len(records) == 0 {
		return table
	}

	for _, header := range records[0] {
		table.Columns = append(table.Columns, strings.TrimSpace(header))
	}

	for _, record := range records[1:] {
		row := make(domain.Row, len(table.Columns))
		empty := true
		for i, col := range table.Columns {
			cell := ""
			if i < len(record) {
				cell = record[i]
			}
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
			row[col] = cell
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// TimestampColumn returns the table's timestamp column, located by
// case-insensitive substring match on "timestamp" or "date".
func TimestampColumn(t domain.NamedTable) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "timestamp") || strings.Contains(lower, "date") {
			return col, true
		}
	}
	return "", false
}

// MatchColumn returns the first column whose name contains pattern
// (case-insensitive), excluding any column literally named "timestamp".
func MatchColumn(t domain.NamedTable, pattern string) (string, bool) {
	pattern = strings.ToLower(pattern)
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if lower == "timestamp" {
			continue
		}
		if strings.Contains(lower, pattern) {
			return col, true
		}
	}
	return "", false
}

// SeriesFromTable extracts a normalized time series from a table: the
// timestamp column plus the first value column matching columnPattern.
// Rows with unparseable timestamps are dropped. The second return is false
// when either column is missing; callers omit the metric in that case.
func SeriesFromTable(t domain.NamedTable, columnPattern string) ([]domain.SeriesPoint, bool) {
	tsCol, ok := TimestampColumn(t)
	if !ok {
		return nil, false
	}
	valCol, ok := MatchColumn(t, columnPattern)
	if !ok || valCol == tsCol {
		return nil, false
	}

	points := make([]domain.SeriesPoint, 0, len(t.Rows))
	for _, row := range t.Rows {
		ts, ok := ParseTimestamp(row[tsCol])
		if !ok {
			continue
		}
		points = append(points, domain.SeriesPoint{
			Timestamp: ts,
			Value:     ParsePercentage(row[valCol]),
		})
	}
	return points, true
}

// CampaignsFromTable extracts normalized campaign-performance rows.
// Columns are located by case-insensitive substring matching so the
// upstream "#0 All Sent" / "#3 Delivery Rate" style headers resolve
// without exact-name coupling. Unmatched numeric fields coerce to 0.
func CampaignsFromTable(t domain.NamedTable) []domain.CampaignRow {
	nameCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "campaign") || strings.Contains(c, "name")
	})
	sentCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "sent")
	})
	deliveredCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "delivered") && !strings.Contains(c, "rate")
	})
	clickedCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "click") && !strings.Contains(c, "rate") && !strings.Contains(c, "through")
	})
	deliveryRateCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "delivery") && strings.Contains(c, "rate")
	})
	ctrCol := findCampaignColumn(t, func(c string) bool {
		return strings.Contains(c, "ctr") || strings.Contains(c, "click through") ||
			(strings.Contains(c, "click") && strings.Contains(c, "rate"))
	})

	rows := make([]domain.CampaignRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := strings.TrimSpace(cellString(row[nameCol]))
		if name == "" {
			continue
		}
		rows = append(rows, domain.CampaignRow{
			Name:         name,
			Sent:         parseCount(row[sentCol]),
			Delivered:    parseCount(row[deliveredCol]),
			Clicked:      parseCount(row[clickedCol]),
			DeliveryRate: ParsePercentage(row[deliveryRateCol]),
			CTR:          ParsePercentage(row[ctrCol]),
		})
	}
	return rows
}

func findCampaignColumn(t domain.NamedTable, match func(string) bool) string {
	for _, col := range t.Columns {
		if match(strings.ToLower(col)) {
			return col
		}
	}
	return ""
}

// parseCount coerces a raw cell to an integer count, stripping thousands
// separators. Fractional values truncate; garbage coerces to 0.
func parseCount(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}

	s := strings.ReplaceAll(strings.TrimSpace(cellString(raw)), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func cellString(raw any) string {
	if raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", raw)
}
