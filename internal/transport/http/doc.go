// Package http contains the chi HTTP handlers for the dashboard API:
// session lifecycle, file uploads, date-range filtering, metric
// summaries and series, campaign tables, report downloads, and the
// live-refresh websocket endpoint. Errors surface as RFC 7807
// application/problem+json responses.
package http
