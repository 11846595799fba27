package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercator-hq/autopublish/pkg/content"
)

// MemoryStorage implements content.Catalog with an in-memory map.
// It is intended for tests and local development.
type MemoryStorage struct {
	items   map[string]*content.Item
	indexes []string
	mu      sync.RWMutex
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithIndexes overrides the index names the catalog reports. Use it to
// simulate a catalog that was never set up for autopublishing.
func WithIndexes(indexes ...string) MemoryOption {
	return func(s *MemoryStorage) {
		s.indexes = append([]string(nil), indexes...)
	}
}

// NewMemoryStorage creates a new in-memory catalog.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		items:   make(map[string]*content.Item),
		indexes: append([]string(nil), content.AllIndexes...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the stored item.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*content.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	return item.Clone(), nil
}

// Put stores a copy of the item.
func (s *MemoryStorage) Put(ctx context.Context, item *content.Item) error {
	if err := content.Validate(item); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.items {
		if id != item.ID && other.Path == item.Path {
			return content.NewStorageError("memory", "put", fmt.Errorf("%w: %s", content.ErrDuplicatePath, item.Path))
		}
	}

	stored := item.Clone()
	if stored.Modified.IsZero() {
		stored.Modified = time.Now().UTC()
	}
	s.items[item.ID] = stored
	return nil
}

// Delete removes an item.
func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return content.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Search returns brains matching the query, ordered by path.
func (s *MemoryStorage) Search(ctx context.Context, query *content.Query) ([]*content.Brain, error) {
	if query == nil {
		query = &content.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*content.Brain
	for _, item := range s.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := content.BrainFor(item)
		if query.Matches(b) {
			results = append(results, b)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// List returns copies of all items ordered by path.
func (s *MemoryStorage) List(ctx context.Context) ([]*content.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*content.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// Indexes returns the configured index names.
func (s *MemoryStorage) Indexes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.indexes...), nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close clears the catalog.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*content.Item)
	return nil
}
