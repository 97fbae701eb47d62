package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragchat resources.
	uriScheme = "ragchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Statistics of the loaded vector index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "The conversation so far, oldest turn first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{turn}",
		Name:        "history-turn",
		Description: "A single conversation turn by zero-based position",
		MIMEType:    "text/plain",
	}, s.handleTurnResource)
}

func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats := s.ports.Chat.Stats()

	info := struct {
		Path       string `json:"path"`
		Chunks     int    `json:"chunks"`
		Dimensions int    `json:"dimensions"`
		Model      string `json:"model"`
		State      string `json:"state"`
	}{
		Path:       stats.Path,
		Chunks:     stats.Chunks,
		Dimensions: stats.Dimensions,
		Model:      stats.Model,
		State:      stats.State.String(),
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index stats: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func (s *Server) handleHistoryResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type turnInfo struct {
		Question string    `json:"question"`
		Answer   string    `json:"answer"`
		AskedAt  time.Time `json:"asked_at"`
	}

	turns := s.ports.Chat.History()
	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{Question: t.Question, Answer: t.Answer, AskedAt: t.AskedAt}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func (s *Server) handleTurnResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	n, ok := extractTurn(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	turns := s.ports.Chat.History()
	if n >= len(turns) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     "User: " + turns[n].Question + "\nAssistant: " + turns[n].Answer,
		}},
	}, nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractTurn extracts the turn position from a URI like ragchat://history/{turn}.
func extractTurn(uri string) (int, bool) {
	const prefix = uriScheme + "history/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
