// Package metrics records release run metrics.
//
// Components receive a Recorder and call it unconditionally; NoopRecorder is
// the default when no textfile output is configured. PrometheusRecorder keeps
// the metrics in its own registry and writes them in the node_exporter
// textfile format after a run, since a release is a short-lived process that
// nothing scrapes.
//
// Metrics (namespace cottarelease):
//
//	step_duration_seconds{step}
//	step_results_total{step,result}
//	release_duration_seconds
//	release_outcomes_total{outcome}
//	transfer_duration_seconds{transfer,result}
//	transfer_retries_total{transfer}
//	build_number
package metrics
