// Package sinks implements concrete progress consumers: structured logs and
// Prometheus metrics. Each sink satisfies progress.Sink.
package sinks
