// Package postprocessors turns loaded documents into chunks.
package postprocessors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.Splitter = (*Pipeline)(nil)

// Pipeline runs PostProcessors in order. The first one receives nil chunks
// and creates them; later ones may rewrite or extend the list.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline of the given processors.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs one document through every processor.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		var err error
		if chunks, err = proc.Process(ctx, doc, chunks); err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}
	return chunks, nil
}

// Split chunks docs and concatenates the results in document order.
// It stops at the first failure or when ctx is cancelled.
func (p *Pipeline) Split(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	if len(p.processors) == 0 {
		return nil, errors.New("pipeline has no processors")
	}

	var all []domain.Chunk
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := p.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", docs[i].URI, err)
		}
		logger.Debug("%s: %d chunks", docs[i].Title, len(chunks))
		all = append(all, chunks...)
	}
	return all, nil
}

// Add appends a processor.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
