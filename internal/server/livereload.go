package server

import (
	"bufio"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/app"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// LiveReloadEndpoint is the site-relative path of the server-sent events stream.
const LiveReloadEndpoint = "/_docsite/livereload"

// LiveReloadHub manages SSE clients for build-change broadcasts.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*lrClient
	closed    bool
	lastHash  string
	heartbeat time.Duration
	logger    *slog.Logger
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewLiveReloadHub(logger *slog.Logger) *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}, heartbeat: 30 * time.Second, logger: logger}
}

// ServeHTTP streams {"hash":...} events. The first event carries the current build.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	h.mu.Unlock()
	defer h.removeClient(client.id)

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			h.logger.Debug("livereload write", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(": connected\n\n") {
		return
	}
	if current != "" && !send(event(current)) {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case hash := <-client.ch:
			if !send(event(hash)) {
				return
			}
		}
	}
}

func event(hash string) string { return "data: {\"hash\":\"" + hash + "\"}\n\n" }

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients reports the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends hash to all clients, dropping clients whose buffers are full.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.logger.Debug("livereload broadcast", slog.String("hash", hash),
		slog.Int("clients", len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

var liveReloadTmpl = template.Must(template.New("livereload").Parse(
	`<script data-docsite-livereload>(function(){var current=null;function connect(){` +
		`var es=new EventSource({{.}});` +
		`es.onmessage=function(e){try{var p=JSON.parse(e.data);if(current===null){current=p.hash;return}` +
		`if(p.hash&&p.hash!==current){location.reload()}}catch(_){}};` +
		`es.onerror=function(){es.close();setTimeout(connect,2000)}}connect()})();</script>`))

// withLiveReload wraps root so every page ends with the live reload client for url.
func withLiveReload(root app.Root, url string) app.Root {
	return app.RootFunc(func(w io.Writer, page app.Component, props app.Props) error {
		if err := root.Render(w, page, props); err != nil {
			return err
		}
		return liveReloadTmpl.Execute(w, url)
	})
}
