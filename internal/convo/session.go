package convo

import (
	"context"
	"sync"

	"github.com/pokedexlab/dexter/internal/observe"
)

// Session is the conversational state for one client (a web socket, a
// Discord channel, or the interactive terminal). Safe for concurrent use.
type Session struct {
	id     string
	memory *Memory

	mu              sync.Mutex
	pendingQuestion string
	pending         []string
}

// NewSession creates a session with a default-sized memory.
func NewSession(id string) *Session {
	return &Session{
		id:     id,
		memory: NewMemory(DefaultMemorySize),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Memory returns the session's exchange memory.
func (s *Session) Memory() *Memory {
	return s.memory
}

// SetPending stores the question that triggered a disambiguation together
// with the candidate names awaiting the client's choice. An empty candidate
// slice clears the pending state.
func (s *Session) SetPending(question string, candidates []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingQuestion = question
	s.pending = append([]string(nil), candidates...)
	if len(s.pending) == 0 {
		s.pendingQuestion = ""
		s.pending = nil
	}
}

// TakePending returns and clears the pending disambiguation state. The
// candidates are nil when no disambiguation is pending.
func (s *Session) TakePending() (question string, candidates []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, candidates = s.pendingQuestion, s.pending
	s.pendingQuestion = ""
	s.pending = nil
	return question, candidates
}

// HasPending reports whether a disambiguation choice is awaited.
func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Manager hands out sessions keyed by client identifier, creating them on
// demand. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	metrics  *observe.Metrics
}

// ManagerOption is a functional option for [Manager].
type ManagerOption func(*Manager)

// WithManagerMetrics replaces the default metrics instance.
func WithManagerMetrics(m *observe.Metrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager creates an empty session manager.
func NewManager(opts ...ManagerOption) *Manager {
	mgr := &Manager{
		sessions: make(map[string]*Session),
		metrics:  observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(mgr)
	}
	return mgr
}

// Get returns the session for id, creating it when absent.
func (mgr *Manager) Get(ctx context.Context, id string) *Session {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, ok := mgr.sessions[id]
	if !ok {
		s = NewSession(id)
		mgr.sessions[id] = s
		mgr.metrics.ActiveSessions.Add(ctx, 1)
	}
	return s
}

// Remove drops the session for id, if present.
func (mgr *Manager) Remove(ctx context.Context, id string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if _, ok := mgr.sessions[id]; ok {
		delete(mgr.sessions, id)
		mgr.metrics.ActiveSessions.Add(ctx, -1)
	}
}

// Len returns the number of live sessions.
func (mgr *Manager) Len() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.sessions)
}
