// Package metrics provides build and serving metrics for docsite.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics stay optional without nil checks:
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	b := export.New(cfg, export.WithRecorder(rec))
//
// The server mode exposes the registry on /metrics through HTTPHandler.
package metrics
