package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

// BuildStarted is emitted when an export or server build begins.
type BuildStarted struct {
	Output   string `json:"output"`
	BasePath string `json:"base_path,omitempty"`
	DistDir  string `json:"dist_dir,omitempty"`
}

// StageCompleted is emitted after each pipeline stage.
type StageCompleted struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
}

// BuildCompleted is emitted when every stage succeeded.
type BuildCompleted struct {
	Pages      int   `json:"pages"`
	Assets     int   `json:"assets"`
	DurationMS int64 `json:"duration_ms"`
}

// BuildFailed is emitted when a stage returns an error.
type BuildFailed struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewEvent marshals payload into an event of the given type.
func NewEvent(buildID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, wrap(ErrMarshalPayloadFailed, err)
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}
