// Package httpserver wraps net/http serving with env-driven timeouts,
// graceful shutdown on context cancellation or SIGINT/SIGTERM, and probe
// handlers for liveness/readiness.
package httpserver
