package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pushpulse/internal/errors"
	"pushpulse/pkg/contracts/domain"
)

// SummaryExporter writes a metrics summary as a flat one-row CSV report.
type SummaryExporter struct {
	logger *slog.Logger
}

// NewSummaryExporter creates a summary report exporter.
func NewSummaryExporter(logger *slog.Logger) *SummaryExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryExporter{logger: logger.With(slog.String("component", "summary_exporter"))}
}

// WriteCSV writes the summary as a single header row plus a single data
// row. Keys are emitted in the given order; absent metrics are skipped
// entirely so the report never fabricates zeroes. Trending metrics get
// companion <key>_trend_pct and <key>_trend_dir columns.
func (e *SummaryExporter) WriteCSV(w io.Writer, summary domain.MetricsSummary, keys []string) error {
	var header, row []string

	for _, key := range keys {
		entry, ok := summary.Get(key)
		if !ok {
			continue
		}

		header = append(header, key)
		row = append(row, formatFloat(entry.Value))

		if entry.Trend != nil {
			header = append(header, key+"_trend_pct", key+"_trend_dir")
			row = append(row, formatFloat(entry.Trend.Percentage), string(entry.Trend.Direction))
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return errors.NewExportError("failed to write summary header row", err)
	}
	if err := writer.Write(row); err != nil {
		return errors.NewExportError("failed to write summary data row", err)
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return errors.NewExportError("failed to flush summary report", err)
	}
	return nil
}

// WriteFile writes the summary report into dir with a timestamped file
// name and returns the full path.
func (e *SummaryExporter) WriteFile(dir string, summary domain.MetricsSummary, keys []string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create report directory", err)
	}

	path := filepath.Join(dir, ReportFileName("summary", "csv"))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.NewStorageError("failed to create summary report file", err)
	}
	defer file.Close()

	if err := e.WriteCSV(file, summary, keys); err != nil {
		return "", err
	}

	e.logger.Info("summary report written",
		slog.String("path", path),
		slog.Int("metric_count", len(summary)))

	return path, nil
}

// ReportFileName builds a timestamped report file name, mirroring the
// dashboard's download naming.
func ReportFileName(kind, ext string) string {
	return fmt.Sprintf("pushpulse_%s_%s.%s", kind, time.Now().Format("20060102_150405"), ext)
}
