// Package api hosts the HTTP server that presents aggregation runs. Notable
// routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/progress, /v1/aggregate and /v1/chart for the latest run.
//   - GET /v1/events upgrades to a websocket that streams run events.
//   - GET /v1/runs and /v1/runs/{run_id} for history via the RunRepository
//     interface.
package api
