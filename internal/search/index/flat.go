// Package index provides an exact nearest-neighbour index over float32 vectors.
package index

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
)

// Slot is the dense position of a vector in the index, assigned on insertion.
type Slot int

// Hit is a single search result.
type Hit struct {
	Slot     Slot
	Distance float32 // squared Euclidean distance
}

// Flat is a brute-force squared-L2 index. Vectors are stored row-major in one slice.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors []float32
}

// NewFlat returns an empty index for vectors of length dim.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Flat{dim: dim}, nil
}

// FromVectors builds an index from row-major data. len(flat) must be a multiple of dim.
func FromVectors(dim int, flat []float32) (*Flat, error) {
	f, err := NewFlat(dim)
	if err != nil {
		return nil, err
	}
	if len(flat)%dim != 0 {
		return nil, fmt.Errorf("%w: %d floats is not a multiple of %d", ErrDimensionMismatch, len(flat), dim)
	}
	f.vectors = make([]float32, len(flat))
	copy(f.vectors, flat)
	return f, nil
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors) / f.dim
}

// Add appends v and returns its slot. The index is unchanged on error.
func (f *Flat) Add(v []float32) (Slot, error) {
	if len(v) != f.dim {
		return 0, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(v), f.dim)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	slot := Slot(len(f.vectors) / f.dim)
	f.vectors = append(f.vectors, v...)
	return slot, nil
}

// Vector returns a copy of the vector stored at slot.
func (f *Flat) Vector(slot Slot) ([]float32, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if slot < 0 || int(slot) >= len(f.vectors)/f.dim {
		return nil, false
	}
	out := make([]float32, f.dim)
	copy(out, f.row(int(slot)))
	return out, true
}

// Vectors returns a row-major copy of every stored vector.
func (f *Flat) Vectors() []float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]float32, len(f.vectors))
	copy(out, f.vectors)
	return out
}

// Search returns up to k hits ordered by ascending distance, lower slot first on ties.
func (f *Flat) Search(q []float32, k int) ([]Hit, error) {
	if len(q) != f.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(q), f.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	f.mu.RLock()
	n := len(f.vectors) / f.dim
	if k > n {
		k = n
	}
	h := make(worstFirst, 0, k)
	for i := 0; i < n; i++ {
		hit := Hit{Slot: Slot(i), Distance: squaredL2(q, f.row(i))}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if worse(h[0], hit) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}
	f.mu.RUnlock()

	out := []Hit(h)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out, nil
}

func (f *Flat) row(i int) []float32 {
	return f.vectors[i*f.dim : (i+1)*f.dim]
}

// worse reports whether a ranks after b.
func worse(a, b Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Slot > b.Slot
}

// worstFirst is a max-heap keeping the current worst hit at the root.
type worstFirst []Hit

var _ heap.Interface = (*worstFirst)(nil)

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
