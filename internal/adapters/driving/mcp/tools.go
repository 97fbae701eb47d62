package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// defaultSearchLimit applies when the search tool is called without a limit.
const defaultSearchLimit = 4

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 4)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// SourceOutput represents a single retrieved passage.
type SourceOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Position   int     `json:"position"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// ResetInput is the input schema for the reset_conversation tool.
type ResetInput struct{}

// ResetOutput is the output schema for the reset_conversation tool.
type ResetOutput struct {
	Cleared int `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents and the conversation so far",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the passages closest to a query without generating an answer",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset_conversation",
		Description: "Forget the conversation history",
	}, s.handleReset)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toSourceOutputs(answer.Sources),
	}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Chat.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toSourceOutputs(results),
		Count:   len(results),
	}, nil
}

func (s *Server) handleReset(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ResetInput,
) (*mcp.CallToolResult, ResetOutput, error) {
	cleared := len(s.ports.Chat.History())
	s.ports.Chat.Reset()
	return nil, ResetOutput{Cleared: cleared}, nil
}

func toSourceOutputs(results []domain.RetrievalResult) []SourceOutput {
	out := make([]SourceOutput, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = SourceOutput{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Source:     c.Source,
			Position:   c.Position,
			Distance:   results[i].Score,
			Content:    c.Content,
		}
	}
	return out
}
