package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/retry"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	failures int
	calls    int
	flushed  bool
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.calls++
	if f.pubErr != nil {
		return f.pubErr
	}
	if f.calls <= f.failures {
		return errors.New("temporarily disconnected")
	}
	f.subject, f.data = subject, data
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error { f.flushed = true; return nil }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestNotifyPublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	n := &NATSNotifier{conn: fc, subject: "docsite.builds"}

	err := n.Notify(context.Background(), BuildEvent{BuildID: "b1", Status: "completed", Output: "export", Pages: 5})
	require.NoError(t, err)
	assert.Equal(t, "docsite.builds", fc.subject)
	assert.True(t, fc.flushed)

	var got BuildEvent
	require.NoError(t, json.Unmarshal(fc.data, &got))
	assert.Equal(t, "b1", got.BuildID)
	assert.Equal(t, 5, got.Pages)
	assert.False(t, got.Timestamp.IsZero())

	require.NoError(t, n.Close())
	assert.True(t, fc.closed)
}

func TestNotifyPublishError(t *testing.T) {
	n := &NATSNotifier{conn: &fakeConn{pubErr: errors.New("disconnected")}, subject: "s"}
	err := n.Notify(context.Background(), BuildEvent{BuildID: "b1"})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNetwork))
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	fc := &fakeConn{failures: 2}
	n := &NATSNotifier{conn: fc, subject: "s", retry: retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)}

	require.NoError(t, n.Notify(context.Background(), BuildEvent{BuildID: "b1"}))
	assert.Equal(t, 3, fc.calls)
	assert.True(t, fc.flushed)
}

func TestConnectUnreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "s")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNetwork))
}
