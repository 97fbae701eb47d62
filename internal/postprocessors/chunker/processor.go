// Package chunker provides a hierarchical text splitter.
//
// Each chunk is cut at the coarsest boundary available inside its window:
// paragraph breaks first, then line breaks, sentence ends, spaces, and
// finally a hard cut at the window edge. Adjacent chunks of a document
// share exactly the configured overlap, so dropping the leading overlap of
// every chunk after the first reconstructs the document.
package chunker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are the split boundaries, coarsest first.
// A hard character cut is always the last resort.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSeparators replaces the boundary hierarchy. Empty separators are dropped.
func WithSeparators(separators ...string) Option {
	return func(p *Processor) {
		p.separators = toRunes(separators)
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrConfiguration unless 0 <= overlap < chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: toRunes(DefaultSeparators),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrConfiguration, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrConfiguration, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := []rune(doc.Content)
	if len(text) == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(text)/step+1)

	start := 0
	for position := 0; ; position++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := len(text)
		if end-start > p.chunkSize {
			end = p.boundary(text, start)
		}

		overlap := 0
		if position > 0 {
			overlap = p.overlap
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Source:     doc.URI,
			Content:    string(text[start:end]),
			Position:   position,
			Start:      start,
			End:        end,
			Overlap:    overlap,
			Metadata: map[string]any{
				"source": doc.URI,
				"title":  doc.Title,
			},
		})

		if end == len(text) {
			break
		}
		start = end - p.overlap
	}

	return chunks, nil
}

// boundary returns the exclusive end of the chunk starting at start.
// The end always lies in (start+overlap, start+chunkSize] so the next
// chunk begins strictly after this one.
func (p *Processor) boundary(text []rune, start int) int {
	limit := start + p.chunkSize
	floor := start + p.overlap

	for _, sep := range p.separators {
		// A split lands right after the separator.
		for j := limit - len(sep); j >= start && j+len(sep) > floor; j-- {
			if hasRunesAt(text, j, sep) {
				return j + len(sep)
			}
		}
	}

	return limit
}

func hasRunesAt(text []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(text) {
		return false
	}
	for k, r := range sep {
		if text[i+k] != r {
			return false
		}
	}
	return true
}

func toRunes(separators []string) [][]rune {
	out := make([][]rune, 0, len(separators))
	for _, s := range separators {
		if s == "" {
			continue
		}
		out = append(out, []rune(s))
	}
	return out
}
