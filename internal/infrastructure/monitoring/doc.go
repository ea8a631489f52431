/*
Package monitoring provides Prometheus metrics for the bridge subsystem.

# Overview

This package mirrors the shell's internal counters into Prometheus so an
operator can watch bridge health from the outside: dispatch outcomes,
connection transitions, heartbeat results, lifecycle queue pressure, and
open windows. The connection monitor stays the source of truth for the
diagnostics snapshot; these gauges are a read-side mirror.

# Features

- Bridge dispatch metrics (outcome, duration, resolution misses)
- Connection state metrics (transitions, up gauge, reconnect attempts)
- Heartbeat probe metrics
- Lifecycle queue metrics (depth, drops, requeues)
- Window registry metrics
- Diagnostics HTTP request metrics

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record from components (nil receiver is safe in tests)
	metrics.RecordDispatch("ws_heartbeat", "success", elapsed)
	metrics.SetQueueDepth(q.Len())

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
