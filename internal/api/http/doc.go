// Package http serves the local diagnostics surface: snapshot reads,
// transition history, gzip export, and a live SSE stream fed by refresh
// ticks from the hub.
package http
