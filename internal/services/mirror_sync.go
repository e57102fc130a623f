package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// ReconcileResult counts rows pushed to the mirror by a full resync.
type ReconcileResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// MirrorSync pushes relational rows to the document mirror. Services use it
// for the best-effort write that follows every committed change; the retry
// queue and the reconciler use it to repair documents that fell behind.
type MirrorSync struct {
	books     BookStore
	customers CustomerStore
	orders    OrderStore
	imports   ImportStore
	mirror    Mirror
	retry     RetryQueue
}

func NewMirrorSync(books BookStore, customers CustomerStore, orders OrderStore, imports ImportStore, m Mirror) *MirrorSync {
	return &MirrorSync{books: books, customers: customers, orders: orders, imports: imports, mirror: m}
}

// SetRetryQueue enables retries of failed mirror writes. It must be called
// before the services start handling requests.
func (s *MirrorSync) SetRetryQueue(q RetryQueue) {
	s.retry = q
}

// write inserts a freshly created row.
func (s *MirrorSync) write(ctx context.Context, collection string, id uint, doc mirror.Document) error {
	return s.track(ctx, collection, id, s.mirror.Write(ctx, collection, doc))
}

// upsert replaces the mirrored fields of an existing row.
func (s *MirrorSync) upsert(ctx context.Context, collection string, id uint, doc mirror.Document) error {
	return s.track(ctx, collection, id, s.mirror.Upsert(ctx, collection, keyFor(collection, id), doc))
}

func (s *MirrorSync) remove(ctx context.Context, collection string, id uint) error {
	return s.track(ctx, collection, id, s.mirror.Delete(ctx, collection, keyFor(collection, id)))
}

// track logs a failed mirror call and queues the row for a later resync.
func (s *MirrorSync) track(ctx context.Context, collection string, id uint, err error) error {
	if err == nil {
		return nil
	}
	log.Printf("[MIRROR] %s %d out of sync: %v", collection, id, err)
	if s.retry != nil {
		if qerr := s.retry.EnqueueMirrorRetry(ctx, collection, id); qerr != nil {
			log.Printf("[MIRROR] Failed to queue retry for %s %d: %v", collection, id, qerr)
		}
	}
	return err
}

// Resync re-reads one row and upserts its current projection. A row that no
// longer exists has its document deleted instead.
func (s *MirrorSync) Resync(ctx context.Context, collection string, id uint) error {
	doc, err := s.load(ctx, collection, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return s.mirror.Delete(ctx, collection, keyFor(collection, id))
	case err != nil:
		return err
	}
	return s.mirror.Upsert(ctx, collection, keyFor(collection, id), doc)
}

// ResyncAll upserts every row of every mirrored collection. Individual
// failures are counted and logged; only a failure to enumerate rows aborts.
func (s *MirrorSync) ResyncAll(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	for _, collection := range mirror.Collections {
		ids, err := s.ids(ctx, collection)
		if err != nil {
			return result, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if err := s.Resync(ctx, collection, id); err != nil {
				log.Printf("[MIRROR] Resync of %s %d failed: %v", collection, id, err)
				result.Failed++
				continue
			}
			result.Synced++
		}
	}
	return result, nil
}

func (s *MirrorSync) load(ctx context.Context, collection string, id uint) (mirror.Document, error) {
	switch collection {
	case mirror.CollectionBooks:
		b, err := s.books.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return bookDocument(b), nil
	case mirror.CollectionCustomers:
		c, err := s.customers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return customerDocument(c), nil
	case mirror.CollectionOrders:
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return orderDocument(o), nil
	case mirror.CollectionImports:
		b, err := s.imports.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return importDocument(b), nil
	}
	return nil, fmt.Errorf("unknown mirror collection %q", collection)
}

func (s *MirrorSync) ids(ctx context.Context, collection string) ([]uint, error) {
	switch collection {
	case mirror.CollectionBooks:
		list, err := s.books.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, len(list))
		for i, b := range list {
			ids[i] = b.ID
		}
		return ids, nil
	case mirror.CollectionCustomers:
		list, err := s.customers.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, len(list))
		for i, c := range list {
			ids[i] = c.ID
		}
		return ids, nil
	case mirror.CollectionOrders:
		return s.orders.IDs(ctx)
	case mirror.CollectionImports:
		return s.imports.IDs(ctx)
	}
	return nil, fmt.Errorf("unknown mirror collection %q", collection)
}

func keyFor(collection string, id uint) mirror.Document {
	switch collection {
	case mirror.CollectionBooks:
		return bookKey(id)
	case mirror.CollectionCustomers:
		return customerKey(id)
	case mirror.CollectionOrders:
		return orderKey(id)
	default:
		return importKey(id)
	}
}
