package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/database/imports"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/mirror"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.BookStore = (*books.Repository)(nil)
var _ services.CustomerStore = (*customers.Repository)(nil)
var _ services.OrderStore = (*orders.Repository)(nil)
var _ services.ImportStore = (*imports.Repository)(nil)
var _ services.ReportStore = (*reports.Repository)(nil)

// =============================================================================
// Document Mirror
// =============================================================================

var _ mirror.Backend = (*mirror.MongoBackend)(nil)
var _ mirror.Backend = (*mirror.MemoryBackend)(nil)
var _ mirror.Backend = mirror.NoopBackend{}
var _ services.Mirror = (*mirror.Mirror)(nil)

// =============================================================================
// HTTP Surface
// =============================================================================

var _ http.BookService = (*services.BookService)(nil)
var _ http.CustomerService = (*services.CustomerService)(nil)
var _ http.OrderService = (*services.OrderService)(nil)
var _ http.ImportService = (*services.ImportService)(nil)
var _ http.CheckoutService = (*services.Checkout)(nil)
var _ http.ReportService = (*services.ReportService)(nil)
var _ http.Reconciler = (*services.MirrorSync)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ http.Pinger = (*mirror.Mirror)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ services.RetryQueue = (*tasks.Client)(nil)
var _ tasks.Resyncer = (*services.MirrorSync)(nil)
var _ scheduler.Reconciler = (*services.MirrorSync)(nil)
