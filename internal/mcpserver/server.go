// Package mcpserver exposes the question-answering pipeline as an MCP tool
// server over stdio, built on the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
//
// A single tool is published: ask_dex. Each MCP session is backed by its own
// conversation session, so an MCP client can ask follow-up questions and
// answer disambiguation prompts the same way a chat user would.
package mcpserver

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/observe"
	"github.com/pokedexlab/dexter/internal/orchestrator"
)

// AskArgs are the arguments of the ask_dex tool.
type AskArgs struct {
	Question string `json:"question" jsonschema:"a natural-language question about a first-generation creature, in Portuguese"`
}

// AskResult is the structured result of the ask_dex tool. When NeedsChoice
// is set, call ask_dex again with the number of the chosen candidate.
type AskResult struct {
	Answer      string   `json:"answer"`
	NeedsChoice bool     `json:"needs_choice,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
}

// Answerer produces a reply for one message on a session. Implemented by
// [orchestrator.Orchestrator].
type Answerer interface {
	Answer(ctx context.Context, sess *convo.Session, message string) (orchestrator.Reply, error)
}

// Server is the MCP tool server.
type Server struct {
	server   *mcpsdk.Server
	orch     Answerer
	sessions *convo.Manager
	metrics  *observe.Metrics
	log      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics replaces the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates the server and registers the ask_dex tool.
func New(orch Answerer, sessions *convo.Manager, opts ...Option) *Server {
	s := &Server{
		orch:     orch,
		sessions: sessions,
		metrics:  observe.DefaultMetrics(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	s.server = mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: "dexter", Version: "1.0.0"},
		nil,
	)
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        "ask_dex",
		Description: "Answer a natural-language question about a first-generation creature: stats, types, abilities, evolutions, weaknesses, locations, and comparisons.",
	}, s.askDex)

	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server ready", "tool", "ask_dex")
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect binds the server to a transport and returns the session. Used by
// tests with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// askDex handles one ask_dex call on the calling MCP session.
func (s *Server) askDex(ctx context.Context, req *mcpsdk.CallToolRequest, args AskArgs) (*mcpsdk.CallToolResult, AskResult, error) {
	id := req.Session.ID()
	if id == "" {
		// Stdio sessions carry no ID; there is only one client anyway.
		id = "stdio"
	}
	sess := s.sessions.Get(ctx, id)

	reply, err := s.orch.Answer(ctx, sess, args.Question)
	if err != nil {
		s.metrics.RecordToolCall(ctx, "ask_dex", "error")
		s.log.Error("ask_dex failed", "session", id, "err", err)
		return nil, AskResult{}, err
	}
	s.metrics.RecordToolCall(ctx, "ask_dex", "ok")

	return nil, AskResult{
		Answer:      reply.Text,
		NeedsChoice: reply.NeedsChoice,
		Candidates:  reply.Candidates,
	}, nil
}
