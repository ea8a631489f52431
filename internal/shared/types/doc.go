// Package types provides shared data structures for the bridge subsystem.
//
// This package defines the value types exchanged between the connection
// monitor, lifecycle queue, window registry, and the diagnostics surface.
// Everything here is a plain immutable value; ownership of the mutable
// aggregates (history, metrics, records) stays with the domain components.
//
// Core Types:
//   - ConnectionState: bridge state enum (initializing, connected, ...)
//   - StateTransitionRecord: one accepted transition with timestamp
//   - ConnectionMetrics: accumulated send/reconnect counters
//   - RuntimePort: resolved backend port plus its source
//   - LifecyclePayload: one window lifecycle notification
//   - WindowSnapshot: read-only window record copy
//
// Report Types (serialized to the backend, field names fixed):
//   - StateChangeReport, HeartbeatReport, ErrorReport
//
// Example Usage:
//
//	p := types.LifecyclePayload{
//	    Event:    types.EventOpened,
//	    WindowID: string(id.NewWindowID()),
//	    Title:    "Settings",
//	}
package types
