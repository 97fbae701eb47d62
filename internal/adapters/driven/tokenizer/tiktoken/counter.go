// Package tiktoken counts tokens with OpenAI's BPE encodings.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultModel selects the encoding when none is configured.
const DefaultModel = "gpt-3.5-turbo"

// fallbackEncoding is used for models tiktoken does not know, such as qwen or llama.
const fallbackEncoding = "cl100k_base"

// Counter counts tokens for a model's encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New returns a counter for model. Unknown models use cl100k_base.
// The encoding file is fetched on first use and cached by tiktoken.
func New(model string) (*Counter, error) {
	if model == "" {
		model = DefaultModel
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("load token encoding: %w", err)
		}
	}

	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
