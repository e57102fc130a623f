package mirror

import (
	"context"
	"maps"
	"reflect"
	"sync"
)

// MemoryBackend keeps mirror documents in process. It backs local runs and
// tests; Fail makes every subsequent call return the given error.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string][]Document
	failWith    error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string][]Document)}
}

// Fail injects err into every following call. Fail(nil) restores normal
// operation.
func (m *MemoryBackend) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Documents returns a copy of every document in collection.
func (m *MemoryBackend) Documents(collection string) []Document {
	return m.Find(collection, nil)
}

// Find returns copies of the documents matching filter by field equality.
func (m *MemoryBackend) Find(collection string, filter Document) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			out = append(out, maps.Clone(doc))
		}
	}
	return out
}

func (m *MemoryBackend) EnsureCollections(_ context.Context, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, name := range names {
		if _, ok := m.collections[name]; !ok {
			m.collections[name] = nil
		}
	}
	return nil
}

func (m *MemoryBackend) Insert(_ context.Context, collection string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.collections[collection] = append(m.collections[collection], maps.Clone(doc))
	return nil
}

func (m *MemoryBackend) Upsert(_ context.Context, collection string, filter, set, setOnInsert Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			maps.Copy(doc, set)
			return nil
		}
	}
	doc := maps.Clone(filter)
	if doc == nil {
		doc = Document{}
	}
	maps.Copy(doc, set)
	maps.Copy(doc, setOnInsert)
	m.collections[collection] = append(m.collections[collection], doc)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, collection string, filter Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	docs := m.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			m.collections[collection] = append(docs[:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MemoryBackend) Count(_ context.Context, collection string, filter Document) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	var n int64
	for _, doc := range m.collections[collection] {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failWith
}

func (m *MemoryBackend) Close(context.Context) error { return nil }

func matches(doc, filter Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
