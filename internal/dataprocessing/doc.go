// Package dataprocessing turns raw campaign metric exports into normalized
// tables and summary metrics.
//
// # Architecture
//
// The package is organized into two components:
//
// 1. Parser: reads CSV/Excel exports and normalizes heterogeneous cell
// values (percentage strings, multi-format timestamps) into canonical types
// 2. Summarizer: aggregates normalized tables into a per-metric summary
// with half-split trend indicators
//
// # Usage
//
// Basic parsing example:
//
//	table, err := dataprocessing.ReadTable("revenue.csv", file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Generate a summary:
//
//	s := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultMetricSpecs())
//	summary := s.Summarize(ctx, tables, nil)
//
// # Error Handling
//
// Cell-level parsing never fails: unparseable percentages coerce to 0 and
// unparseable timestamps drop the row. Only unreadable files surface an
// error, and callers are expected to degrade those to per-file warnings.
// Consequently a summary may omit any metric key entirely; consumers must
// check presence rather than assume zero means "no data".
package dataprocessing
