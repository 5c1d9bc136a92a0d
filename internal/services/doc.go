// Package services contains the dashboard's business logic layer. The
// DashboardService sits between the HTTP transport and the data
// processing core: it ingests uploaded files into session state, runs
// the summarizer over the stored tables, and shapes the results for the
// dashboard and its report downloads.
package services
