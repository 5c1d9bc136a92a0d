package exporter

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pushpulse/pkg/contracts/domain"
)

func sampleSummary() domain.MetricsSummary {
	return domain.MetricsSummary{
		"total_revenue": {
			Value: 1000,
			Trend: &domain.Trend{Percentage: 133.3333, Direction: domain.TrendUp},
		},
		"delivery_rate": {
			Value: 94.5,
			Trend: &domain.Trend{Percentage: 0, Direction: domain.TrendNeutral},
		},
		"campaign_count": {Value: 3},
	}
}

func TestSummaryExporterWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	exp := NewSummaryExporter(nil)

	keys := []string{"total_revenue", "open_rate", "delivery_rate", "campaign_count"}
	require.NoError(t, exp.WriteCSV(&buf, sampleSummary(), keys))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, row := records[0], records[1]
	assert.Equal(t, []string{
		"total_revenue", "total_revenue_trend_pct", "total_revenue_trend_dir",
		"delivery_rate", "delivery_rate_trend_pct", "delivery_rate_trend_dir",
		"campaign_count",
	}, header, "absent open_rate must produce no columns")

	assert.Equal(t, "1000.00", row[0])
	assert.Equal(t, "133.33", row[1])
	assert.Equal(t, "up", row[2])
	assert.Equal(t, "94.50", row[3])
	assert.Equal(t, "neutral", row[5])
	assert.Equal(t, "3.00", row[6])
}

func TestSummaryExporterWriteFile(t *testing.T) {
	dir := t.TempDir()
	exp := NewSummaryExporter(nil)

	path, err := exp.WriteFile(dir, sampleSummary(), []string{"total_revenue"})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "pushpulse_summary_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))
}

func TestWorkbookExporterWrite(t *testing.T) {
	tables := map[string]domain.NamedTable{
		"revenue.csv": {
			Name:    "revenue.csv",
			Columns: []string{"timestamp", "revenue"},
			Rows: []domain.Row{
				{"timestamp": "2024-03-01", "revenue": "100"},
				{"timestamp": "2024-03-02", "revenue": "200"},
			},
		},
		"ctrrate.csv": {
			Name:    "ctrrate.csv",
			Columns: []string{"timestamp", "ctr"},
			Rows: []domain.Row{
				{"timestamp": "2024-03-01", "ctr": "5%"},
			},
		},
	}

	var buf bytes.Buffer
	exp := NewWorkbookExporter(nil)
	require.NoError(t, exp.Write(&buf, tables))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{"revenue", "ctrrate"}, sheets)

	rows, err := f.GetRows("revenue")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "revenue"}, rows[0])
	assert.Equal(t, []string{"2024-03-01", "100"}, rows[1])
}

func TestWorkbookExporterEmpty(t *testing.T) {
	var buf bytes.Buffer
	exp := NewWorkbookExporter(nil)
	assert.Error(t, exp.Write(&buf, nil))
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		index int
		want  string
	}{
		{name: "extension stripped", file: "revenue.csv", index: 0, want: "revenue"},
		{name: "forbidden chars replaced", file: "a/b:c.csv", index: 0, want: "a_b_c"},
		{name: "dotfile keeps name", file: ".hidden", index: 0, want: ".hidden"},
		{
			name:  "long name truncated with suffix",
			file:  "noofcustomerswithpurchasesattributedtopush.csv",
			index: 4,
			want:  "noofcustomerswithpurchasesatt~5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sheetName(tt.file, tt.index)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), excelSheetNameLimit)
		})
	}
}
