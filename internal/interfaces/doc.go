// Package interfaces documents the seams between the bookstore packages.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore, CustomerStore: entity CRUD and search (internal/services/interfaces.go)
//   - OrderStore, ImportStore: the two-phase workflows (internal/services/interfaces.go)
//   - ReportStore: read-only aggregations (internal/services/interfaces.go)
//
// ## Mirror Interfaces
//
//   - mirror.Backend: a document store (MongoDB, in-memory, no-op)
//   - services.Mirror: the instrumented writer the services call
//   - services.RetryQueue: where failed mirror writes are queued
//
// ## HTTP Interfaces
//
//   - BookService, CustomerService, OrderService, ImportService,
//     CheckoutService, ReportService (internal/http/stores.go)
//   - Pinger, Reconciler, TaskQueue: health and mirror maintenance
//
// # Adding a New Mirror Backend
//
//  1. Implement mirror.Backend in internal/mirror/
//
//     type ElasticBackend struct {
//         client *elasticsearch.Client
//     }
//
//     func (b *ElasticBackend) Upsert(ctx context.Context, collection string, filter, set, setOnInsert Document) error
//
//  2. Select it by URI scheme in mirror.Open
//
//  3. Add a compile-time check to checks.go:
//
//     var _ mirror.Backend = (*mirror.ElasticBackend)(nil)
//
// # Adding a New Report
//
//  1. Add the query to internal/database/reports and to services.ReportStore
//  2. Expose it on services.ReportService and http.ReportService
//  3. Register a route in router.go and a renderer in internal/cli/report.go
//
// # Compile-Time Interface Checks
//
// Implementations are checked at compile time rather than at runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
