package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/app"
)

func readUntil(t *testing.T, r *bufio.Reader, needle string) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

func connect(t *testing.T, hub *LiveReloadHub) *bufio.Reader {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func TestLiveReloadInitialHash(t *testing.T) {
	hub := NewLiveReloadHub(slog.Default())
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	r := connect(t, hub)
	assert.True(t, readUntil(t, r, `"hash":"abc123"`))
}

func TestLiveReloadBroadcast(t *testing.T) {
	hub := NewLiveReloadHub(slog.Default())
	defer hub.Shutdown()

	r := connect(t, hub)
	require.True(t, readUntil(t, r, ": connected"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("newhash")
	assert.True(t, readUntil(t, r, `"hash":"newhash"`))
}

func TestLiveReloadShutdown(t *testing.T) {
	hub := NewLiveReloadHub(slog.Default())
	hub.Shutdown()
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWithLiveReloadAppendsClient(t *testing.T) {
	inner := app.RootFunc(func(w io.Writer, page app.Component, props app.Props) error {
		return page.Render(w, props)
	})
	root := withLiveReload(inner, "/docs/_docsite/livereload")
	var sb strings.Builder
	err := root.Render(&sb, app.ComponentFunc(func(w io.Writer, _ app.Props) error {
		_, err := io.WriteString(w, "<main>page</main>")
		return err
	}), app.Props{Route: "/"})
	require.NoError(t, err)
	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "<main>page</main><script data-docsite-livereload>"))
	assert.Contains(t, out, `new EventSource("/docs/_docsite/livereload")`)
}
