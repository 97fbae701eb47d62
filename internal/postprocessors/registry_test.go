package postprocessors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func namedBuilder(name string) BuilderFunc {
	return func(cfg map[string]any) (driven.PostProcessor, error) {
		n := name
		if v, ok := cfg["name"].(string); ok {
			n = v
		}
		return &mockProcessor{name: n}, nil
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())
	assert.False(t, r.Has("beta"))

	r.Register("beta", namedBuilder("beta"))
	r.Register("alpha", namedBuilder("alpha"))
	assert.True(t, r.Has("beta"))
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())

	proc, err := r.Build("beta", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())

	_, err = r.Build("gamma", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildChunker(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	require.True(t, r.Has("chunker"))

	tests := []struct {
		name    string
		cfg     map[string]any
		wantErr bool
	}{
		{name: "nil config uses defaults", cfg: nil},
		{name: "numbers decoded from toml", cfg: map[string]any{"chunk_size": int64(300), "overlap": float64(30)}},
		{name: "custom separators", cfg: map[string]any{"chunk_size": 50, "separators": []string{"\n", " "}}},
		{name: "overlap not below size", cfg: map[string]any{"chunk_size": 100, "overlap": 100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := r.Build("chunker", tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "chunker", proc.Name())
		})
	}
}

func TestRegistry_BuildPipeline(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := r.BuildPipeline(domain.PipelineConfigFor(domain.ChunkSettings{ChunkSize: 10, Overlap: 2}))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	_, err = r.BuildPipeline(domain.PipelineConfig{Processors: []string{"stemmer"}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = r.BuildPipeline(domain.PipelineConfig{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewSplitter(t *testing.T) {
	splitter, err := NewSplitter(domain.ChunkSettings{ChunkSize: 10, Overlap: 2})
	require.NoError(t, err)

	chunks, err := splitter.Split(context.Background(), []domain.Document{
		{ID: "a", URI: "/a.txt", Content: "0123456789abcdef"},
		{ID: "b", URI: "/b.txt", Content: "short"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "a", "b"},
		[]string{chunks[0].DocumentID, chunks[1].DocumentID, chunks[2].DocumentID})

	_, err = NewSplitter(domain.ChunkSettings{ChunkSize: 10, Overlap: 10})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name  string
		cfg   map[string]any
		want  int
		found bool
	}{
		{"int", map[string]any{"size": 100}, 100, true},
		{"int64", map[string]any{"size": int64(200)}, 200, true},
		{"float64", map[string]any{"size": float64(300)}, 300, true},
		{"zero", map[string]any{"size": 0}, 0, true},
		{"string", map[string]any{"size": "400"}, 0, false},
		{"missing", map[string]any{"other": 100}, 0, false},
		{"nil config", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := getIntFromConfig(tt.cfg, "size")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
		})
	}
}
