package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func testResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{
			Chunk: domain.Chunk{
				ID:         "chunk-1",
				DocumentID: "doc-1",
				Source:     "/data/cats.txt",
				Position:   2,
				Content:    "Cats sleep a lot.",
			},
			Score: 0.25,
		},
	}
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.Answer{Text: "They sleep.", Sources: testResults()}}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What do cats do?"})
		require.NoError(t, err)
		assert.Equal(t, "What do cats do?", chat.lastQuery)
		assert.Equal(t, "They sleep.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, SourceOutput{
			ChunkID:    "chunk-1",
			DocumentID: "doc-1",
			Source:     "/data/cats.txt",
			Position:   2,
			Distance:   0.25,
			Content:    "Cats sleep a lot.",
		}, output.Sources[0])
	})

	t.Run("propagates errors", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrInvalidQuery}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: " "})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		chat := &mockChatService{results: testResults()}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "cats", Limit: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, chat.lastK)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "chunk-1", output.Results[0].ChunkID)
	})

	t.Run("default limit", func(t *testing.T) {
		chat := &mockChatService{}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "cats"})
		require.NoError(t, err)
		assert.Equal(t, defaultSearchLimit, chat.lastK)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
	})

	t.Run("propagates errors", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrEmbedding}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "cats"})
		assert.ErrorIs(t, err, domain.ErrEmbedding)
	})
}

func TestServer_handleReset(t *testing.T) {
	chat := &mockChatService{turns: []domain.Turn{{Question: "q1"}, {Question: "q2"}}}
	server, err := NewServer(&Ports{Chat: chat})
	require.NoError(t, err)

	_, output, err := server.handleReset(context.Background(), nil, ResetInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, output.Cleared)
	assert.Equal(t, 1, chat.resets)
	assert.Empty(t, chat.History())
}
