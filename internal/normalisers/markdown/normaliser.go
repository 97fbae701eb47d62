// Package markdown reduces Markdown documents to plain text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	fencedCode   = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`\n]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	stars        = regexp.MustCompile(`(\*\*|\*)([^*\n]+)(\*\*|\*)`)
	underscores  = regexp.MustCompile(`(^|\s)(__|_)([^_\n]+)(__|_)`)
	blockquotes  = regexp.MustCompile(`(?m)^>[ \t]?`)
	rules        = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets      = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numbered     = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise strips Markdown syntax. Code block contents and link text are
// kept since they often carry the answer. The first level-one heading
// becomes the title.
func (n *Normaliser) Normalise(_ context.Context, doc domain.Document) (domain.Document, error) {
	if title := firstHeading(doc.Content); title != "" {
		doc.Title = title
	}
	doc.Content = Strip(doc.Content)
	doc.Metadata = withFormat(doc.Metadata, "markdown")
	return doc, nil
}

// Strip returns content with Markdown formatting removed.
func Strip(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = htmlComments.ReplaceAllString(content, "")
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = rules.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquotes.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = stars.ReplaceAllString(content, "$2")
	content = underscores.ReplaceAllString(content, "$1$3")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func withFormat(meta map[string]any, format string) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["format"] = format
	return out
}
