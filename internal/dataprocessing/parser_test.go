package dataprocessing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpulse/pkg/contracts/domain"
)

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "plain percent string", input: "95.5%", want: 95.5},
		{name: "sub one percent", input: "0.5%", want: 0.5},
		{name: "no suffix", input: "42.1", want: 42.1},
		{name: "integer string", input: "100", want: 100},
		{name: "thousands separator", input: "1,250.75", want: 1250.75},
		{name: "separator with percent", input: "1,250%", want: 1250},
		{name: "surrounding whitespace", input: "  7.5% ", want: 7.5},
		{name: "negative value", input: "-3.2%", want: -3.2},
		{name: "nil", input: nil, want: 0},
		{name: "empty string", input: "", want: 0},
		{name: "whitespace only", input: "   ", want: 0},
		{name: "garbage", input: "n/a", want: 0},
		{name: "bare percent sign", input: "%", want: 0},
		{name: "float passthrough", input: 95.5, want: 95.5},
		{name: "float32 passthrough", input: float32(2.5), want: 2.5},
		{name: "int passthrough", input: 12, want: 12},
		{name: "int64 passthrough", input: int64(7), want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParsePercentage(tt.input), 1e-9)
		})
	}
}

func TestParsePercentageIdempotent(t *testing.T) {
	once := ParsePercentage("88.2%")
	twice := ParsePercentage(once)
	assert.Equal(t, once, twice)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   time.Time
		wantOK bool
	}{
		{
			name:   "iso datetime",
			input:  "2024-03-15 10:30:00",
			want:   time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "iso date only",
			input:  "2024-03-15",
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name: "ambiguous slash date reads month first",
			// 03/04 could be March 4 or April 3; month-first wins
			input:  "03/04/2024",
			want:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "day first when month slot exceeds twelve",
			input:  "25/12/2024",
			want:   time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "t separated datetime",
			input:  "2024-03-15T10:30:00",
			want:   time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fallback slash year first",
			input:  "2024/03/15",
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fallback month name",
			input:  "Mar 5, 2024",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "fallback compact",
			input:  "20240315",
			want:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "nil", input: nil, wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseTimestampPassthrough(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got, ok := ParseTimestamp(ts)
	require.True(t, ok)
	assert.Equal(t, ts, got)
}

func TestReadTable(t *testing.T) {
	csvContent := "timestamp, total sends ,campaign\n" +
		"2024-03-01,1000,Spring Sale\n" +
		"2024-03-02,1500\n" +
		",,\n" +
		"2024-03-03,2000,Flash,extra\n"

	table, err := ReadTable("sends.csv", strings.NewReader(csvContent))
	require.NoError(t, err)

	assert.Equal(t, "sends.csv", table.Name)
	assert.Equal(t, []string{"timestamp", "total sends", "campaign"}, table.Columns)
	require.Len(t, table.Rows, 3, "blank row must be skipped")

	// Short row padded with empty cell
	assert.Equal(t, "", table.Rows[1]["campaign"])
	// Long row truncated to the header width
	assert.Equal(t, "Flash", table.Rows[2]["campaign"])
}

func TestReadTableEmpty(t *testing.T) {
	table, err := ReadTable("empty.csv", strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestReadTableMalformed(t *testing.T) {
	_, err := ReadTable("bad.csv", strings.NewReader("a,\"b\nunclosed"))
	assert.Error(t, err)
}

func TestTimestampColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
		wantOK  bool
	}{
		{name: "literal timestamp", columns: []string{"Timestamp", "value"}, want: "Timestamp", wantOK: true},
		{name: "date variant", columns: []string{"Send Date", "value"}, want: "Send Date", wantOK: true},
		{name: "none", columns: []string{"campaign", "value"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := tableWithColumns(tt.columns)
			got, ok := TimestampColumn(table)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchColumn(t *testing.T) {
	table := tableWithColumns([]string{"timestamp", "#1 Total Sends", "notes"})

	col, ok := MatchColumn(table, "send")
	require.True(t, ok)
	assert.Equal(t, "#1 Total Sends", col)

	// The timestamp column itself never matches a value pattern
	_, ok = MatchColumn(table, "timestamp")
	assert.False(t, ok)

	_, ok = MatchColumn(table, "revenue")
	assert.False(t, ok)
}

func TestSeriesFromTable(t *testing.T) {
	table, err := ReadTable("revenue.csv", strings.NewReader(
		"timestamp,#7 Revenue Attributed to Push\n"+
			"2024-03-01,\"1,000.50\"\n"+
			"not-a-date,500\n"+
			"2024-03-02,2000\n"))
	require.NoError(t, err)

	points, ok := SeriesFromTable(table, "revenue")
	require.True(t, ok)
	require.Len(t, points, 2, "unparseable timestamp row must be dropped")
	assert.InDelta(t, 1000.50, points[0].Value, 1e-9)
	assert.InDelta(t, 2000, points[1].Value, 1e-9)
}

func TestSeriesFromTableMissingColumns(t *testing.T) {
	noTimestamp := tableWithColumns([]string{"campaign", "revenue"})
	_, ok := SeriesFromTable(noTimestamp, "revenue")
	assert.False(t, ok)

	noValue := tableWithColumns([]string{"timestamp", "campaign"})
	_, ok = SeriesFromTable(noValue, "revenue")
	assert.False(t, ok)
}

func TestCampaignsFromTable(t *testing.T) {
	table, err := ReadTable("campaigns.csv", strings.NewReader(
		"Campaign Name,#0 All Sent,#2 Delivered,#3 Delivery Rate,#5 Clicked,#6 CTR\n"+
			"Spring Sale,\"10,000\",9500,95%,450,4.7%\n"+
			"Flash Friday,5000,4800,96%,300,6.25%\n"+
			",100,90,90%,5,5%\n"))
	require.NoError(t, err)

	rows := CampaignsFromTable(table)
	require.Len(t, rows, 2, "nameless row must be skipped")

	assert.Equal(t, "Spring Sale", rows[0].Name)
	assert.Equal(t, int64(10000), rows[0].Sent)
	assert.Equal(t, int64(9500), rows[0].Delivered)
	assert.Equal(t, int64(450), rows[0].Clicked)
	assert.InDelta(t, 95, rows[0].DeliveryRate, 1e-9)
	assert.InDelta(t, 4.7, rows[0].CTR, 1e-9)

	assert.Equal(t, "Flash Friday", rows[1].Name)
	assert.InDelta(t, 6.25, rows[1].CTR, 1e-9)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int64
	}{
		{name: "plain", input: "1200", want: 1200},
		{name: "separator", input: "1,200", want: 1200},
		{name: "fractional truncates", input: "12.9", want: 12},
		{name: "garbage", input: "n/a", want: 0},
		{name: "empty", input: "", want: 0},
		{name: "int64 passthrough", input: int64(5), want: 5},
		{name: "float truncates", input: 3.7, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCount(tt.input))
		})
	}
}

func tableWithColumns(cols []string) domain.NamedTable {
	return domain.NamedTable{Columns: cols}
}
