// Package notify publishes build-completed notifications to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

// BuildEvent is the message body published after a build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Status     string    `json:"status"`
	Output     string    `json:"output"`
	BasePath   string    `json:"base_path,omitempty"`
	Pages      int       `json:"pages"`
	Assets     int       `json:"assets"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier delivers build events.
type Notifier interface {
	Notify(ctx context.Context, ev BuildEvent) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Notify(context.Context, BuildEvent) error { return nil }
func (Noop) Close() error                             { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes events as JSON on a fixed subject.
type NATSNotifier struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("docsite"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).Retryable().Build()
	}
	slog.Info("NATS notifier connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSNotifier{conn: nc, subject: subject, retry: retry.DefaultPolicy()}, nil
}

// Notify publishes ev and waits for the server to acknowledge the flush. Transient
// failures are retried with backoff.
func (n *NATSNotifier) Notify(ctx context.Context, ev BuildEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to marshal build event").Build()
	}
	if err := n.retry.Do(ctx, func() error { return n.publish(ctx, data) }); err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), slog.String("subject", n.subject))
	return nil
}

func (n *NATSNotifier) publish(ctx context.Context, data []byte) error {
	if err := n.conn.Publish(n.subject, data); err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "failed to publish build event").
			WithContext("subject", n.subject).Retryable().Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "failed to flush build event").
			WithContext("subject", n.subject).Retryable().Build()
	}
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
