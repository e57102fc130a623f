package http

import (
	"context"

	"github.com/mrlokans/bookstore/internal/services"
)

// Reconciler re-syncs every row to the mirror. *services.MirrorSync
// implements it.
type Reconciler interface {
	ResyncAll(ctx context.Context) (services.ReconcileResult, error)
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core services
	Books     BookService
	Customers CustomerService
	Orders    OrderService
	Imports   ImportService
	Checkout  CheckoutService
	Reports   ReportService

	// Health checks
	Database Pinger
	Mirror   Pinger

	// Mirror reconcile. Reconciles are queued when TaskQueue is set and run
	// inline otherwise.
	Reconciler Reconciler
	TaskQueue  TaskQueue

	// ServiceName enables otelgin tracing when non-empty.
	ServiceName string

	// Application info
	Version string
}
