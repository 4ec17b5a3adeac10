package eventstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGetByBuildID(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "build-1", "TestEvent", []byte(`{"test":"data"}`), map[string]string{"key": "value"}))
	require.NoError(t, store.Append(ctx, "build-2", "Other", []byte("x"), nil))
	require.NoError(t, store.Append(ctx, "build-1", "Second", nil, nil))

	events, err := store.GetByBuildID(ctx, "build-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "TestEvent", events[0].Type())
	assert.JSONEq(t, `{"test":"data"}`, string(events[0].Payload()))
	assert.Equal(t, "value", events[0].Metadata()["key"])
	assert.Equal(t, "Second", events[1].Type())
	assert.Empty(t, events[1].Payload())
}

func TestRecentNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	for _, typ := range []string{"a", "b", "c"} {
		require.NoError(t, store.Append(ctx, "build-1", typ, nil, nil))
	}

	events, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Type())
	assert.Equal(t, "b", events[1].Type())

	none, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetRange(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		require.NoError(t, store.Append(ctx, "build-1", "Event", []byte("data"), nil))
	}

	events, err := store.GetRange(ctx, base.Add(30*time.Minute), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Timestamp().Equal(base.Add(time.Hour)))
}

func TestClosedStoreErrors(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), "b", "t", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEventAppendFailed))
}
