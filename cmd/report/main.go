// Command report summarizes campaign metric files from the command line
// without running the dashboard server. It reads every CSV and Excel
// file in the input directory, prints the metric summary, and optionally
// writes the flat CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pushpulse/internal/config"
	"pushpulse/internal/dataprocessing"
	"pushpulse/internal/exporter"
	"pushpulse/internal/infrastructure"
	"pushpulse/internal/services"
	"pushpulse/pkg/contracts/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	inputDir := fs.String("in", ".", "directory containing campaign metric files")
	outDir := fs.String("out", "", "directory for the CSV report (omit to skip writing)")
	startStr := fs.String("start", "", "range start, YYYY-MM-DD")
	endStr := fs.String("end", "", "range end, YYYY-MM-DD")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  *logLevel,
		Output: "console",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	dateRange, err := parseRange(*startStr, *endStr)
	if err != nil {
		return err
	}

	tables, skipped, err := loadTables(*inputDir)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return fmt.Errorf("no readable metric files in %s", *inputDir)
	}

	ctx := context.Background()
	summarizer := dataprocessing.NewSummarizer(logger, nil)
	summary := summarizer.Summarize(ctx, tables, dateRange)

	printSummary(summary, summarizer)
	for _, warn := range skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", warn.File, warn.Message)
	}

	if *outDir != "" {
		keys := append(summarizer.MetricKeys(), dataprocessing.MetricCampaignCount)
		path, err := exporter.NewSummaryExporter(logger).WriteFile(*outDir, summary, keys)
		if err != nil {
			return err
		}
		fmt.Printf("\nreport written to %s\n", path)
	}
	return nil
}

func parseRange(startStr, endStr string) (*dataprocessing.DateRange, error) {
	if startStr == "" && endStr == "" {
		return nil, nil
	}
	if startStr == "" || endStr == "" {
		return nil, fmt.Errorf("both -start and -end are required for a range")
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return nil, fmt.Errorf("invalid -end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("-end precedes -start")
	}
	return &dataprocessing.DateRange{Start: start, End: end}, nil
}

func loadTables(dir string) (map[string]domain.NamedTable, []domain.UploadWarning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read input directory: %w", err)
	}

	tables := make(map[string]domain.NamedTable)
	var warnings []domain.UploadWarning

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" && ext != ".xls" {
			continue
		}

		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, domain.UploadWarning{File: name, Message: err.Error()})
			continue
		}

		var table domain.NamedTable
		if ext == ".csv" {
			table, err = dataprocessing.ReadTable(name, f)
		} else {
			table, err = dataprocessing.ReadWorkbookTable(name, f)
		}
		f.Close()

		if err != nil {
			warnings = append(warnings, domain.UploadWarning{File: name, Message: err.Error()})
			continue
		}
		tables[name] = table
	}
	return tables, warnings, nil
}

func printSummary(summary domain.MetricsSummary, summarizer *dataprocessing.Summarizer) {
	keys := append(summarizer.MetricKeys(), dataprocessing.MetricCampaignCount)
	sort.Strings(keys)

	for _, key := range keys {
		entry, ok := summary.Get(key)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-22s %s", key, services.FormatNumber(entry.Value))
		if entry.Trend != nil {
			line += fmt.Sprintf("  %s %s", services.TrendArrow(entry.Trend.Direction), services.FormatPercent(entry.Trend.Percentage))
		}
		fmt.Println(line)
	}
}
