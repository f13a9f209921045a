// Package progress carries the run's live notifications. Notifier delivers
// progress and aggregate signals synchronously to in-process listeners, and
// Hub relays them asynchronously to slower consumers such as metrics, logs
// and connected presentation clients without ever blocking the pipeline.
package progress
