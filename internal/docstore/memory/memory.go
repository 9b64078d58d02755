// Package memory is an in-process docstore backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vbonduro/grocerysync/internal/docstore"
)

type Backend struct {
	mu     sync.RWMutex
	leaves map[string][]byte
}

func New() *Backend {
	return &Backend{leaves: make(map[string][]byte)}
}

func (b *Backend) Replace(_ context.Context, path string, leaves []docstore.Leaf) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := range b.leaves {
		if p == path || within(p, path) {
			delete(b.leaves, p)
		}
	}
	for _, a := range docstore.Ancestors(path) {
		delete(b.leaves, a)
	}
	for _, l := range leaves {
		b.leaves[l.Path] = append([]byte(nil), l.Value...)
	}
	return nil
}

func (b *Backend) Leaves(_ context.Context, path string) ([]docstore.Leaf, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []docstore.Leaf
	for p, v := range b.leaves {
		if p == path || within(p, path) {
			out = append(out, docstore.Leaf{Path: p, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Len returns the number of stored leaves.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.leaves)
}

func within(p, root string) bool {
	lo, hi := docstore.SubtreeBounds(root)
	return p >= lo && p < hi
}
