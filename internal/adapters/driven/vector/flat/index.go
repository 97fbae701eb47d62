// Package flat provides an exact nearest-neighbour index using squared
// Euclidean distance over vectors held in memory.
package flat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// ErrDimensionMismatch indicates a vector whose size differs from the index.
var ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", domain.ErrInvalidInput)

// Index scans every vector on search. Vectors are stored row-major in one
// slice. Not safe for concurrent mutation.
type Index struct {
	ids     []string
	vectors []float32
	dims    int
}

// New creates an empty index. The dimensionality is fixed by the first Add.
func New() *Index {
	return &Index{}
}

// Add inserts vectors in order. Either all vectors are inserted or none.
func (x *Index) Add(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d ids for %d vectors", domain.ErrInvalidInput, len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil
	}

	dims := x.dims
	if dims == 0 {
		dims = len(vectors[0])
	}
	if dims == 0 {
		return errors.New("flat: empty vector")
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dims)
		}
	}

	x.dims = dims
	x.ids = append(x.ids, ids...)
	for _, v := range vectors {
		x.vectors = append(x.vectors, v...)
	}
	return nil
}

// Search returns up to k hits by ascending distance; ties keep insertion order.
func (x *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	n := len(x.ids)
	if n == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(query), x.dims)
	}

	hits := make([]driven.VectorHit, n)
	for i := 0; i < n; i++ {
		hits[i] = driven.VectorHit{
			ChunkID:  x.ids[i],
			Distance: squaredL2(query, x.vectors[i*x.dims:(i+1)*x.dims]),
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > n {
		k = n
	}
	return hits[:k], nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	return len(x.ids)
}

// Dimensions returns the vector size, zero while empty.
func (x *Index) Dimensions() int {
	return x.dims
}

// Remove deletes the vectors with the given IDs, keeping the order of the
// rest. Unknown IDs are ignored. Returns the number removed.
func (x *Index) Remove(ids []string) int {
	if len(ids) == 0 || len(x.ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := 0
	for i, id := range x.ids {
		if _, ok := drop[id]; ok {
			continue
		}
		x.ids[kept] = id
		copy(x.vectors[kept*x.dims:(kept+1)*x.dims], x.vectors[i*x.dims:(i+1)*x.dims])
		kept++
	}

	removed := len(x.ids) - kept
	x.ids = x.ids[:kept]
	x.vectors = x.vectors[:kept*x.dims]
	return removed
}

// Reset removes every vector.
func (x *Index) Reset() {
	x.ids = nil
	x.vectors = nil
	x.dims = 0
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
