package mirror

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Collections kept in the document mirror.
const (
	CollectionBooks     = "books"
	CollectionCustomers = "customers"
	CollectionOrders    = "orders"
	CollectionImports   = "imports"
)

// Collections lists every mirrored collection in bootstrap order.
var Collections = []string{CollectionBooks, CollectionCustomers, CollectionOrders, CollectionImports}

// Document is a normalized mirror document.
type Document = map[string]any

// Backend is a document store the mirror writes through. Implementations must
// be safe for concurrent use.
type Backend interface {
	// EnsureCollections creates the named collections that do not exist yet.
	EnsureCollections(ctx context.Context, names []string) error
	Insert(ctx context.Context, collection string, doc Document) error
	// Upsert updates the first document matching filter with set, or inserts
	// filter+set+setOnInsert when none matches.
	Upsert(ctx context.Context, collection string, filter, set, setOnInsert Document) error
	// Delete removes at most one document matching filter.
	Delete(ctx context.Context, collection string, filter Document) (int64, error)
	Count(ctx context.Context, collection string, filter Document) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open picks a backend from the URI scheme: mongodb:// and mongodb+srv://
// connect to MongoDB, memory:// keeps documents in-process and an empty URI
// disables mirroring. timeout bounds the initial MongoDB ping.
func Open(ctx context.Context, uri, database string, timeout time.Duration) (Backend, error) {
	switch {
	case uri == "":
		return NoopBackend{}, nil
	case strings.HasPrefix(uri, "memory://"):
		return NewMemoryBackend(), nil
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return NewMongoBackend(ctx, uri, database, timeout)
	default:
		return nil, fmt.Errorf("unsupported mirror URI %q", uri)
	}
}

// NoopBackend accepts and discards every write.
type NoopBackend struct{}

func (NoopBackend) EnsureCollections(context.Context, []string) error { return nil }

func (NoopBackend) Insert(context.Context, string, Document) error { return nil }

func (NoopBackend) Upsert(context.Context, string, Document, Document, Document) error { return nil }

func (NoopBackend) Delete(context.Context, string, Document) (int64, error) { return 0, nil }

func (NoopBackend) Count(context.Context, string, Document) (int64, error) { return 0, nil }

func (NoopBackend) Ping(context.Context) error { return nil }

func (NoopBackend) Close(context.Context) error { return nil }
