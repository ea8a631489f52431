// Package tracing threads a request id through the diagnostics server so
// log lines, exported archives, and client retries can be correlated.
package tracing
