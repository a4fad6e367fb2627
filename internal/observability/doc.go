// Package observability provides the board's event log, metrics derived from
// it, and the time-based alert deduplicator with its watcher and notifiers.
// Events are persisted as JSON Lines and metrics are computed on demand.
package observability
