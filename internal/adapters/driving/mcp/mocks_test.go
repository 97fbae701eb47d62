package mcp

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.Answer
	results []domain.RetrievalResult
	turns   []domain.Turn
	stats   domain.IndexStats
	err     error

	lastQuery string
	lastK     int
	resets    int
}

func (m *mockChatService) Ask(_ context.Context, query string) (*domain.Answer, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChatService) Search(_ context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	return m.results, m.err
}

func (m *mockChatService) Reset() {
	m.resets++
	m.turns = nil
}

func (m *mockChatService) History() []domain.Turn {
	return m.turns
}

func (m *mockChatService) Ingest(_ context.Context, _ []domain.FileChange) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, m.err
}

func (m *mockChatService) State() domain.IndexState {
	return m.stats.State
}

func (m *mockChatService) Stats() domain.IndexStats {
	return m.stats
}
