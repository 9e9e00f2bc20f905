// Package web exposes the question-answering pipeline over HTTP.
//
// The main surface is a WebSocket chat endpoint at /ws: each connection gets
// its own conversation session, so follow-up questions and disambiguation
// choices work the same way they do on the other front ends. The handler also
// mounts the health endpoints and the Prometheus metrics scrape target.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/health"
	"github.com/pokedexlab/dexter/internal/observe"
	"github.com/pokedexlab/dexter/internal/orchestrator"
)

// Question is one inbound chat frame.
type Question struct {
	Text string `json:"question"`
}

// Answer is one outbound chat frame. When NeedsChoice is set the client
// should reply with the number of the chosen candidate.
type Answer struct {
	Text        string   `json:"answer"`
	NeedsChoice bool     `json:"needs_choice,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
}

// Server serves the WebSocket chat endpoint plus health and metrics routes.
type Server struct {
	orch     *orchestrator.Orchestrator
	sessions *convo.Manager
	health   *health.Handler
	metrics  *observe.Metrics
	log      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics enables the observability middleware on all routes.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth mounts /healthz and /readyz from the given handler.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// New creates a Server answering questions through orch. Each WebSocket
// connection is backed by a session from sessions.
func New(orch *orchestrator.Orchestrator, sessions *convo.Manager, opts ...Option) *Server {
	s := &Server{
		orch:     orch,
		sessions: sessions,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the full route tree, wrapped in the observability
// middleware when metrics are configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metrics != nil {
		return observe.Middleware(s.metrics)(mux)
	}
	return mux
}

// handleWS upgrades the connection and runs the chat loop until the client
// disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	id := newSessionID()
	sess := s.sessions.Get(ctx, id)
	defer s.sessions.Remove(ctx, id)

	s.log.Info("chat connected", "session", id, "remote", r.RemoteAddr)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				s.log.Info("chat disconnected", "session", id)
			} else {
				s.log.Warn("chat read error", "session", id, "err", err)
			}
			return
		}

		var q Question
		if err := json.Unmarshal(data, &q); err != nil {
			s.log.Warn("bad chat frame", "session", id, "err", err)
			conn.Close(websocket.StatusInvalidFramePayloadData, "expected a JSON question frame")
			return
		}

		reply, err := s.orch.Answer(ctx, sess, q.Text)
		if err != nil {
			s.log.Error("answer failed", "session", id, "err", err)
			conn.Close(websocket.StatusInternalError, "answer failed")
			return
		}

		out := Answer{
			Text:        reply.Text,
			NeedsChoice: reply.NeedsChoice,
			Candidates:  reply.Candidates,
		}
		if err := s.writeJSON(ctx, conn, out); err != nil {
			s.log.Warn("chat write error", "session", id, "err", err)
			return
		}
	}
}

// writeJSON marshals v and writes it as a text WebSocket message.
func (s *Server) writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// newSessionID produces a random 16-byte hex string using crypto/rand.
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the OS entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
