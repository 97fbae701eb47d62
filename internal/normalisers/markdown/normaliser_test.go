package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown"}, New().Extensions())
}

func TestNormalise(t *testing.T) {
	doc := domain.Document{
		URI:      "/docs/guide.md",
		Title:    "guide.md",
		Content:  "# Install Guide\n\nRun `make` first.",
		Metadata: map[string]any{"size": int64(36)},
	}

	out, err := New().Normalise(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Install Guide", out.Title)
	assert.Equal(t, "Install Guide\n\nRun make first.", out.Content)
	assert.Equal(t, "markdown", out.Metadata["format"])
	assert.Equal(t, int64(36), out.Metadata["size"])

	// The input is left alone.
	assert.Equal(t, "guide.md", doc.Title)
	assert.NotContains(t, doc.Metadata, "format")
}

func TestNormalise_KeepsTitleWithoutHeading(t *testing.T) {
	doc := domain.Document{Title: "notes.md", Content: "## Section\n\nbody"}

	out, err := New().Normalise(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", out.Title)
	assert.Equal(t, "Section\n\nbody", out.Content)
}

func TestStrip(t *testing.T) {
	input := "# Guide\n\n" +
		"Some **bold** and *italic* text with `code`.\n\n" +
		"- item one\n- item two\n\n" +
		"1. first\n\n" +
		"See [the docs](http://example.com) and ![logo](logo.png).\n\n" +
		"> quoted\n\n" +
		"---\n\n" +
		"```go\nfmt.Println(1)\n```\n"

	want := "Guide\n\n" +
		"Some bold and italic text with code.\n\n" +
		"item one\nitem two\n\n" +
		"first\n\n" +
		"See the docs and logo.\n\n" +
		"quoted\n\n" +
		"fmt.Println(1)"

	assert.Equal(t, want, Strip(input))
}

func TestStrip_Cases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text unchanged", input: "just words", want: "just words"},
		{name: "windows line endings", input: "a\r\n\r\n\r\n\r\nb", want: "a\n\nb"},
		{name: "snake case survives", input: "call read_file_now", want: "call read_file_now"},
		{name: "underscore emphasis", input: "a _word_ here", want: "a word here"},
		{name: "html comment", input: "a<!-- hidden -->b", want: "ab"},
		{name: "nested heading level", input: "### Deep", want: "Deep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strip(tt.input))
		})
	}
}
