// Package monitor streams accepted hits to live socket.io clients. Each hit
// is broadcast on the default namespace as a "hit" event whose payload is
// the JSON form of hits.Entry.
package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/hits"
	"github.com/zishang520/socket.io/v2/socket"
)

// Event names.
const (
	HitEvent     = "hit"
	SummaryEvent = "summary"
)

// Path is where Handler expects to be mounted.
const Path = "/socket.io/"

// Monitor implements hits.Sink.
type Monitor struct {
	server    *socket.Server
	logger    *slog.Logger
	clients   atomic.Int64
	published atomic.Int64
	closed    atomic.Bool
}

// New creates a socket.io server that is not yet bound to any listener.
func New(ctx context.Context) *Monitor {
	m := &Monitor{
		server: socket.NewServer(nil, nil),
		logger: ctxlog.FromContext(ctx).With("component", "monitor"),
	}

	m.server.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		n := m.clients.Add(1)
		m.logger.Info("Monitor client connected.", "sid", client.Id(), "clients", n)

		client.On("disconnect", func(reason ...any) {
			n := m.clients.Add(-1)
			m.logger.Info("Monitor client disconnected.", "sid", client.Id(), "clients", n, "reason", reason)
		})
	})
	return m
}

// Handler serves the socket.io protocol; mount it under Path.
func (m *Monitor) Handler() http.Handler {
	return m.server.ServeHandler(nil)
}

// Publish broadcasts e to every connected client.
func (m *Monitor) Publish(e hits.Entry) {
	if m.closed.Load() {
		return
	}
	m.server.Emit(HitEvent, e)
	m.published.Add(1)
}

// Summary is broadcast once per finished run.
type Summary struct {
	Run      string `json:"run"`
	RunID    string `json:"run_id"`
	Events   int    `json:"events"`
	Hits     int    `json:"hits"`
	Duration string `json:"duration"`
}

// PublishSummary broadcasts s to every connected client.
func (m *Monitor) PublishSummary(s Summary) {
	if m.closed.Load() {
		return
	}
	m.server.Emit(SummaryEvent, s)
}

// Published returns the number of hits broadcast so far.
func (m *Monitor) Published() int64 {
	return m.published.Load()
}

// Close disconnects all clients. Later publishes are dropped.
func (m *Monitor) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.server.Close(nil)
	m.logger.Debug("Monitor closed.", "published", m.published.Load())
}
