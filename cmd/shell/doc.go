// Package main is the entry point for the deskshell bridge supervisor.
//
// The shell hosts a webview-embedded UI and keeps its channel to the
// backend runtime healthy: it resolves bridge bindings across naming
// conventions, buffers window lifecycle reports while the bridge is
// down, supervises the connection state machine, and tracks window
// records for diagnostics.
//
// Architecture:
//
//	Webview UI → Binding Resolver → Gateway (loopback | ws | rest)
//	             Lifecycle Queue ↗
//	             Connection Monitor → Diagnostics Hub → HTTP / SSE
//	             Window Registry  ↗
//
// The process provides:
//   - Bridge call dispatch with direct-binding and invoker fallback
//   - Ordered, bounded buffering of window lifecycle reports
//   - Heartbeat-driven connection supervision with transition history
//   - Local diagnostics API (snapshot, history, gzip export, SSE stream)
//   - Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Self-contained, in-process backend
//	./shell -mode loopback -demo
//
//	# External runtime over WebSocket
//	BRIDGE_WS_URL=ws://127.0.0.1:9220/bridge ./shell -mode ws
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
