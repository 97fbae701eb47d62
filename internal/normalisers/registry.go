package normalisers

import (
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/html"
	"github.com/custodia-labs/ragchat/internal/normalisers/markdown"
)

// Defaults returns the built-in normalisers.
func Defaults() []driven.Normaliser {
	return []driven.Normaliser{markdown.New(), html.New()}
}

// ByExtension indexes normalisers by extension. A later normaliser wins
// when two claim the same extension.
func ByExtension(ns ...driven.Normaliser) map[string]driven.Normaliser {
	out := make(map[string]driven.Normaliser)
	for _, n := range ns {
		for _, ext := range n.Extensions() {
			out[strings.ToLower(ext)] = n
		}
	}
	return out
}
