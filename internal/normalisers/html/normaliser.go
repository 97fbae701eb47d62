// Package html extracts readable text from HTML documents.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Pre-compiled expressions, applied in order by Strip.
var (
	titleTag   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	invisible  = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)\b[^>]*>.*?</(script|style|noscript|head|svg|template)>`)
	comments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockOpen  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|ul|ol)\b[^>]*>`)
	blockClose = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer|ul|ol)>`)
	lineBreaks = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	cells      = regexp.MustCompile(`(?i)</t[dh]>`)
	tags       = regexp.MustCompile(`<[^>]+>`)
	spaceRuns  = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates an HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Normalise replaces markup with its visible text. A non-empty <title>
// becomes the document title.
func (n *Normaliser) Normalise(_ context.Context, doc domain.Document) (domain.Document, error) {
	if title := Title(doc.Content); title != "" {
		doc.Title = title
	}
	doc.Content = Strip(doc.Content)

	meta := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta["format"] = "html"
	doc.Metadata = meta
	return doc, nil
}

// Title returns the decoded <title> text, or "" when there is none.
func Title(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
}

// Strip removes markup and returns one line per block of visible text.
func Strip(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = invisible.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = blockOpen.ReplaceAllString(content, "\n")
	content = blockClose.ReplaceAllString(content, "\n")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = cells.ReplaceAllString(content, " ")
	content = tags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = spaceRuns.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
