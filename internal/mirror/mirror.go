// Package mirror keeps a best-effort document copy of the relational store.
//
// Writes go through a Backend (MongoDB, in-memory or no-op). Every value is
// normalized first, every document is stamped with its source and a sync id,
// and every failure comes back as an errs.KindMirrorSync error. A mirror
// failure never rolls back the relational write that triggered it.
package mirror

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrlokans/bookstore/internal/errs"
)

const (
	instrumentationName = "github.com/mrlokans/bookstore/internal/mirror"

	// SourceSQLSync marks documents written from relational changes.
	SourceSQLSync = "sql_sync"

	DefaultTimeout = 5 * time.Second
)

// Mirror writes normalized, stamped documents to a Backend.
type Mirror struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time
	tracer  trace.Tracer
	writes  metric.Int64Counter
}

type Option func(*options)

type options struct {
	timeout        time.Duration
	now            func() time.Time
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTimeout bounds every backend call. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// New wraps backend. Tracing and metrics default to the global otel providers.
func New(backend Backend, opts ...Option) *Mirror {
	o := options{
		timeout:        DefaultTimeout,
		now:            time.Now,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if backend == nil {
		backend = NoopBackend{}
	}

	writes, err := o.meterProvider.Meter(instrumentationName).Int64Counter(
		"bookstore.mirror.writes",
		metric.WithDescription("Mirror calls by collection, operation and outcome"),
	)
	if err != nil {
		log.Printf("[MIRROR] Failed to create writes counter: %v", err)
	}

	return &Mirror{
		backend: backend,
		timeout: o.timeout,
		now:     o.now,
		tracer:  o.tracerProvider.Tracer(instrumentationName),
		writes:  writes,
	}
}

// Backend exposes the underlying store, mostly for tests and health checks.
func (m *Mirror) Backend() Backend {
	return m.backend
}

// Bootstrap makes sure every mirrored collection exists. It is safe to call
// on every startup.
func (m *Mirror) Bootstrap(ctx context.Context) error {
	return m.do(ctx, "bootstrap", "", func(ctx context.Context) error {
		return m.backend.EnsureCollections(ctx, Collections)
	})
}

// Write inserts record as a new document stamped with created_at, source
// and sync_id.
func (m *Mirror) Write(ctx context.Context, collection string, record Document) error {
	return m.do(ctx, "write", collection, func(ctx context.Context) error {
		doc := normalizeDocument(record)
		doc["created_at"] = m.now().UTC()
		doc["source"] = SourceSQLSync
		doc["sync_id"] = uuid.NewString()
		return m.backend.Insert(ctx, collection, doc)
	})
}

// Upsert sets update on the document matching filter, inserting it when
// missing. created_at is only written on insert.
func (m *Mirror) Upsert(ctx context.Context, collection string, filter, update Document) error {
	return m.do(ctx, "upsert", collection, func(ctx context.Context) error {
		now := m.now().UTC()
		set := normalizeDocument(update)
		set["updated_at"] = now
		set["source"] = SourceSQLSync
		set["sync_id"] = uuid.NewString()
		return m.backend.Upsert(ctx, collection, normalizeDocument(filter), set, Document{"created_at": now})
	})
}

// Delete removes the document matching filter. A missing document is not an
// error.
func (m *Mirror) Delete(ctx context.Context, collection string, filter Document) error {
	return m.do(ctx, "delete", collection, func(ctx context.Context) error {
		_, err := m.backend.Delete(ctx, collection, normalizeDocument(filter))
		return err
	})
}

// Count returns the number of documents matching filter.
func (m *Mirror) Count(ctx context.Context, collection string, filter Document) (int64, error) {
	var n int64
	err := m.do(ctx, "count", collection, func(ctx context.Context) error {
		var err error
		n, err = m.backend.Count(ctx, collection, normalizeDocument(filter))
		return err
	})
	return n, err
}

func (m *Mirror) Ping(ctx context.Context) error {
	return m.do(ctx, "ping", "", m.backend.Ping)
}

func (m *Mirror) Close(ctx context.Context) error {
	if err := m.backend.Close(ctx); err != nil {
		return errs.New(errs.KindMirrorSync, "mirror.close", err)
	}
	return nil
}

// do runs fn under the mirror timeout, a span and the writes counter. Backend
// panics are turned into errors.
func (m *Mirror) do(ctx context.Context, op, collection string, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	attrs := []attribute.KeyValue{
		attribute.String("mirror.op", op),
		attribute.String("mirror.collection", collection),
	}
	ctx, span := m.tracer.Start(ctx, "mirror."+op, trace.WithAttributes(attrs...))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Printf("[MIRROR] %s %s failed: %v", op, collection, err)
			err = errs.New(errs.KindMirrorSync, "mirror."+op, err)
		}
		if m.writes != nil {
			m.writes.Add(ctx, 1, metric.WithAttributes(
				attribute.String("collection", collection),
				attribute.String("op", op),
				attribute.String("outcome", outcome),
			))
		}
	}()

	return fn(ctx)
}

func normalizeDocument(d Document) Document {
	out := make(Document, len(d)+3)
	for k, v := range d {
		if n, ok := Normalize(v); ok {
			out[k] = n
		}
	}
	return out
}
