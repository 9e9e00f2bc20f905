// Package convo holds per-session conversational state: a bounded FIFO of
// recent question/answer exchanges, the last successfully resolved creature,
// and any disambiguation pending from the previous turn.
package convo

import (
	"strings"
	"sync"
)

// DefaultMemorySize is the number of exchanges a [Memory] retains.
const DefaultMemorySize = 3

// Exchange is one question/answer pair stored in a [Memory].
type Exchange struct {
	Question string
	Answer   string
}

// Memory is a bounded FIFO of recent exchanges. Adding beyond capacity
// evicts the oldest entry. All methods are safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	entries    []Exchange
	maxSize    int
	lastEntity string
}

// NewMemory creates a memory retaining at most maxSize exchanges. A size of
// zero or less falls back to [DefaultMemorySize].
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultMemorySize
	}
	return &Memory{
		entries: make([]Exchange, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an exchange, evicting the oldest entry when full.
func (m *Memory) Add(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Exchange{Question: question, Answer: answer})
	if len(m.entries) > m.maxSize {
		// Copy to a fresh slice so the evicted entry does not pin memory.
		fresh := make([]Exchange, m.maxSize)
		copy(fresh, m.entries[len(m.entries)-m.maxSize:])
		m.entries = fresh
	}
}

// Exchanges returns a copy of the retained exchanges, oldest first.
func (m *Memory) Exchanges() []Exchange {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Exchange, len(m.entries))
	copy(out, m.entries)
	return out
}

// Context serialises the retained exchanges for text mining, oldest first,
// each as a "Q: ...\nA: ..." block.
func (m *Memory) Context() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		parts = append(parts, "Q: "+e.Question+"\nA: "+e.Answer)
	}
	return strings.Join(parts, "\n")
}

// LastEntity returns the display name of the most recently resolved
// creature, or the empty string when nothing resolved yet.
func (m *Memory) LastEntity() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastEntity
}

// SetLastEntity records the most recently resolved creature.
func (m *Memory) SetLastEntity(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEntity = name
}

// Len returns the number of retained exchanges.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
