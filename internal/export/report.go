package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/notify"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeRunning  Outcome = "running"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// ReportFile is the name of the persisted report inside the state directory.
const ReportFile = "build-report.json"

// Report captures the result of one export build.
type Report struct {
	BuildID        string                      `json:"build_id"`
	Output         string                      `json:"output"`
	BasePath       string                      `json:"base_path,omitempty"`
	DistDir        string                      `json:"dist_dir"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	Pages          int                         `json:"pages"`
	Assets         int                         `json:"assets"`
	BrokenLinks    int                         `json:"broken_links"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	Outcome        Outcome                     `json:"outcome"`
	FailedStage    StageName                   `json:"failed_stage,omitempty"`
	Error          string                      `json:"error,omitempty"`
}

func newReport(id string, cfg *config.Config, start time.Time) *Report {
	return &Report{
		BuildID:        id,
		Output:         string(cfg.Build.Output),
		BasePath:       cfg.Build.BasePath,
		DistDir:        cfg.Build.DistDir,
		Start:          start,
		StageDurations: make(map[StageName]time.Duration),
		Outcome:        OutcomeRunning,
	}
}

func (r *Report) finish(end time.Time, err error) {
	r.End = end
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
	case isCanceled(err):
		r.Outcome = OutcomeCanceled
		r.Error = err.Error()
	default:
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d assets=%d broken_links=%d stages=%d duration=%s outcome=%s",
		r.Pages, r.Assets, r.BrokenLinks, len(r.StageDurations), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Notification converts the report into the published build event.
func (r *Report) Notification() notify.BuildEvent {
	status := "completed"
	if r.Outcome != OutcomeSuccess {
		status = string(r.Outcome)
	}
	return notify.BuildEvent{
		BuildID:    r.BuildID,
		Status:     status,
		Output:     r.Output,
		BasePath:   r.BasePath,
		Pages:      r.Pages,
		Assets:     r.Assets,
		DurationMS: r.Duration().Milliseconds(),
		Error:      r.Error,
		Timestamp:  r.End,
	}
}

// Persist writes the report atomically into dir.
func (r *Report) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "ensure report directory").
			WithContext("path", dir).Build()
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "marshal report json").Build()
	}
	target := filepath.Join(dir, ReportFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write report").WithContext("path", tmp).Build()
	}
	if err := os.Rename(tmp, target); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "rename report").WithContext("path", target).Build()
	}
	return nil
}

// LoadReport reads the last persisted report from dir.
func LoadReport(dir string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.NotFoundError("no build report found").WithContext("path", dir).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "read report").Build()
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "decode report").Build()
	}
	return &r, nil
}
