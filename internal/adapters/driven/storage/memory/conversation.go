package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure ConversationMemory implements the interface.
var _ driven.ConversationMemory = (*ConversationMemory)(nil)

// ConversationMemory is an in-process log of question/answer turns.
// It is never persisted.
type ConversationMemory struct {
	mu        sync.RWMutex
	turns     []domain.Turn
	maxTurns  int
	maxTokens int
	counter   driven.TokenCounter
	now       func() time.Time
}

// ConversationOption configures a ConversationMemory.
type ConversationOption func(*ConversationMemory)

// WithMaxTurns keeps only the newest n turns. Zero means unbounded.
func WithMaxTurns(n int) ConversationOption {
	return func(m *ConversationMemory) {
		m.maxTurns = n
	}
}

// WithMaxTokens drops the oldest turns until the rendered fragment fits in
// n tokens as measured by counter. The newest turn is always kept.
func WithMaxTokens(n int, counter driven.TokenCounter) ConversationOption {
	return func(m *ConversationMemory) {
		m.maxTokens = n
		m.counter = counter
	}
}

// NewConversationMemory creates an empty memory.
func NewConversationMemory(opts ...ConversationOption) *ConversationMemory {
	m := &ConversationMemory{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Append records a turn and applies the configured caps.
func (m *ConversationMemory) Append(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, domain.Turn{
		Question: question,
		Answer:   answer,
		AskedAt:  m.now(),
	})

	if m.maxTurns > 0 && len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
	if m.maxTokens > 0 && m.counter != nil {
		for len(m.turns) > 1 && m.counter.Count(render(m.turns)) > m.maxTokens {
			m.turns = m.turns[1:]
		}
	}
}

// Fragment renders the turns oldest first.
func (m *ConversationMemory) Fragment() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return render(m.turns)
}

// Turns returns a copy of the recorded turns.
func (m *ConversationMemory) Turns() []domain.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of turns held.
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Clear removes every turn.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

func render(turns []domain.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User: ")
		b.WriteString(t.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Answer)
	}
	return b.String()
}
