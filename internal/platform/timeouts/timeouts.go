// Package timeouts defines shared timeout constants used by fairdraw commands.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Request caps the handling time of a single audit API request, replays
// included.
const Request = 30 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Telemetry caps the flush of pending spans when a command exits.
const Telemetry = 5 * time.Second
