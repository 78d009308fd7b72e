/*
Package monitoring provides metrics collection for the desktop server.

# Overview

Metrics are Prometheus collectors registered on a registry owned by each
Metrics instance, so the server and its tests never share global state.

# Features

- HTTP request metrics (count, latency) keyed by route template
- Process table size and lifecycle operation outcomes
- Session load outcomes and snapshot write latency
- Storage circuit breaker transitions
- Automation session gauge and idle evictions
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordOperation("open", "opened")

A nil *Metrics is valid and records nothing.
*/
package monitoring
