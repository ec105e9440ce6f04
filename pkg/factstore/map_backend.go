package factstore

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// MapBackend is an in-process Backend, used in tests and for throwaway sessions.
type MapBackend struct {
	mu    sync.RWMutex
	items map[string]Record
}

func NewMapBackend() *MapBackend {
	return &MapBackend{items: make(map[string]Record)}
}

func (b *MapBackend) PutItem(_ context.Context, rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[rec.ID] = rec
	return nil
}

func (b *MapBackend) GetItem(_ context.Context, id string) (Record, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.items[id]
	return rec, ok, nil
}

func (b *MapBackend) Scan(_ context.Context, filter Filter) ([]Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Filter(lo.Values(b.items), func(r Record, _ int) bool {
		return filter.Match(r)
	}), nil
}

// Len returns the number of stored records.
func (b *MapBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}
