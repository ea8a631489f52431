// Package diagnostics distributes "state changed" ticks from the
// connection monitor, lifecycle queue, and window registry to live
// consumers such as the SSE stream endpoint.
package diagnostics
