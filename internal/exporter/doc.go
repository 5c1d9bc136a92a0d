// Package exporter serializes computed summaries and normalized tables
// into downloadable reports: a one-row flat CSV for the metrics summary
// and a multi-sheet Excel workbook carrying every uploaded table.
// Export is pass-through serialization; no aggregation happens here.
package exporter
