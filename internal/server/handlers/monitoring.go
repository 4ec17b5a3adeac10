// Package handlers provides the operational HTTP handlers of the docsite server.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/server/responses"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// Runtime is what the monitoring handlers need from the server.
type Runtime interface {
	GetStartTime() time.Time
	BuildStatus() responses.BuildStatus
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	runtime      Runtime
	errorAdapter *derrors.HTTPErrorAdapter
	now          func() time.Time
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(runtime Runtime, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{
		runtime:      runtime,
		errorAdapter: derrors.NewHTTPErrorAdapter(logger),
		now:          time.Now,
	}
}

// HandleHealthCheck reports whether a site snapshot is being served. It answers 503 until the
// first successful build.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		err := derrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	build := h.runtime.BuildStatus()
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Version:   version.Version,
		Uptime:    h.now().Sub(h.runtime.GetStartTime()).Seconds(),
		Build:     build,
	}
	status := http.StatusOK
	switch {
	case !build.Ready:
		health.Status = "starting"
		status = http.StatusServiceUnavailable
	case build.LastError != "":
		health.Status = "degraded"
	}

	if err := writeJSONPretty(w, r, status, health); err != nil {
		internalErr := derrors.WrapError(err, derrors.CategoryInternal, "failed to write health response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
