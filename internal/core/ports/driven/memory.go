package driven

import "github.com/custodia-labs/ragchat/internal/core/domain"

// ConversationMemory is the ordered log of prior turns injected into prompts.
type ConversationMemory interface {
	// Append records a turn.
	Append(question, answer string)

	// Fragment renders the turns oldest first for prompt injection.
	// Returns an empty string when there are no turns.
	Fragment() string

	// Turns returns a copy of the recorded turns.
	Turns() []domain.Turn

	// Len returns the number of turns held.
	Len() int

	// Clear removes every turn.
	Clear()
}

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	Count(text string) int
}
