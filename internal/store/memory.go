package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryBackend keeps collections in process. It is used by tests and by
// DB_DRIVER=memory for local runs; contents are lost on exit.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string][]bson.D
	unique      map[string][]string
}

// NewMemoryBackend constructs an empty in-memory backend. unique maps a
// collection to the fields that must be unique within it.
func NewMemoryBackend(unique map[string][]string) *MemoryBackend {
	if unique == nil {
		unique = map[string][]string{}
	}
	return &MemoryBackend{
		collections: make(map[string][]bson.D),
		unique:      unique,
	}
}

// FindOne returns the first matching document in insertion order.
func (m *MemoryBackend) FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.collections[collection] {
		if Matches(doc, filter) {
			return Project(doc, projection), nil
		}
	}
	return nil, ErrNotFound
}

// Find returns every matching document, sorted then projected.
func (m *MemoryBackend) Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]bson.D, 0)
	for _, doc := range m.collections[collection] {
		if Matches(doc, filter) {
			matched = append(matched, Clone(doc))
		}
	}
	m.mu.RUnlock()

	SortDocuments(matched, sort)
	for i := range matched {
		matched[i] = Project(matched[i], projection)
	}
	return matched, nil
}

// UpdateOne applies update to the first matching document.
func (m *MemoryBackend) UpdateOne(ctx context.Context, collection string, filter bson.D, update Update) (bson.D, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, doc := range docs {
		if !Matches(doc, filter) {
			continue
		}
		updated, err := Apply(doc, update)
		if err != nil {
			return nil, err
		}
		docs[i] = updated
		return Clone(updated), nil
	}
	return nil, ErrNotFound
}

// InsertOne appends doc, enforcing the configured unique fields.
func (m *MemoryBackend) InsertOne(ctx context.Context, collection string, doc bson.D) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := append([]string{IDField}, m.unique[collection]...)
	for _, existing := range m.collections[collection] {
		for _, key := range keys {
			value, ok := Lookup(doc, key)
			if !ok {
				continue
			}
			if other, ok := Lookup(existing, key); ok && valuesEqual(value, other) {
				return ErrDuplicate
			}
		}
	}

	m.collections[collection] = append(m.collections[collection], Clone(doc))
	return nil
}

// DeleteOne removes the first matching document.
func (m *MemoryBackend) DeleteOne(ctx context.Context, collection string, filter bson.D) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.collections[collection]
	for i, doc := range docs {
		if Matches(doc, filter) {
			m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Close is a no-op.
func (m *MemoryBackend) Close(ctx context.Context) error {
	return nil
}
