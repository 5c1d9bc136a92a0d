// Package app assembles the dashboard server: configuration, logging,
// the session store, the data processing core, the websocket hub, and
// the chi router, then runs the HTTP server with graceful shutdown.
package app
