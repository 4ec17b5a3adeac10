// Package eventstore records build events in SQLite and projects them into build history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Build statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model of one build.
type BuildSummary struct {
	BuildID      string           `json:"build_id"`
	Status       string           `json:"status"`
	Output       string           `json:"output,omitempty"`
	BasePath     string           `json:"base_path,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Duration     time.Duration    `json:"duration,omitempty"`
	Pages        int              `json:"pages"`
	Assets       int              `json:"assets"`
	Stages       map[string]int64 `json:"stages,omitempty"` // stage -> duration ms
	ErrorStage   string           `json:"error_stage,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history
// reconstructed from stored events.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // finished builds, newest first
	maxSize int
}

// NewBuildHistoryProjection creates a projection backed by store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	p.trimLocked()
	return nil
}

// Apply processes a single event.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{BuildID: buildID, Status: StatusRunning, StartedAt: event.Timestamp()}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		var payload BuildStarted
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Output = payload.Output
			summary.BasePath = payload.BasePath
		}
		summary.StartedAt = event.Timestamp()

	case TypeStageCompleted:
		var payload StageCompleted
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if summary.Stages == nil {
				summary.Stages = make(map[string]int64)
			}
			summary.Stages[payload.Stage] = payload.DurationMS
		}

	case TypeBuildCompleted:
		var payload BuildCompleted
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Pages = payload.Pages
			summary.Assets = payload.Assets
		}
		p.finishLocked(summary, event.Timestamp(), StatusCompleted)

	case TypeBuildFailed:
		var payload BuildFailed
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
		p.finishLocked(summary, event.Timestamp(), StatusFailed)
	}
}

func (p *BuildHistoryProjection) finishLocked(summary *BuildSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status

	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{summary}, p.history...)
	p.trimLocked()
}

// trimLocked bounds history and drops finished builds that fell out of it.
func (p *BuildHistoryProjection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, summary := range p.builds {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// GetHistory returns finished builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]BuildSummary, len(p.history))
	for i, h := range p.history {
		out[i] = *h
	}
	return out
}

// GetBuild returns a copy of the summary for buildID.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *summary, true
}

// GetLastCompletedBuild returns the newest finished build, successful or not.
func (p *BuildHistoryProjection) GetLastCompletedBuild() (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return BuildSummary{}, false
	}
	return *p.history[0], true
}
