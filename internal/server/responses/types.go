// Package responses defines the JSON bodies returned by docsite's operational endpoints.
package responses

import "time"

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string      `json:"status"` // healthy|degraded|starting
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Uptime    float64     `json:"uptime"`
	Build     BuildStatus `json:"build"`
}

// BuildStatus describes the site snapshot currently served.
type BuildStatus struct {
	Ready     bool       `json:"ready"`
	BuildID   string     `json:"build_id,omitempty"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
	Pages     int        `json:"pages"`
	LastError string     `json:"last_error,omitempty"`
}
