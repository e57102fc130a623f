package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/database/imports"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/mirror"
	"github.com/mrlokans/bookstore/internal/services"
)

// App owns the two stores and the services built on them. It is shared by
// the HTTP server and the one-shot CLI commands.
type App struct {
	Config *config.Config
	DB     *database.Database
	Mirror *mirror.Mirror

	Sync      *services.MirrorSync
	Books     *services.BookService
	Customers *services.CustomerService
	Orders    *services.OrderService
	Imports   *services.ImportService
	Checkout  *services.Checkout
	Reports   *services.ReportService
}

// NewApp connects the relational store and the mirror and wires the
// services. A mirror that cannot be bootstrapped is logged, not fatal.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	backend, err := mirror.Open(ctx, cfg.Mirror.URI, cfg.Mirror.Database, cfg.Mirror.Timeout)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	m := mirror.New(backend, mirror.WithTimeout(cfg.Mirror.Timeout))
	if err := m.Bootstrap(ctx); err != nil {
		log.Printf("[MIRROR] Bootstrap failed, continuing without it: %v", err)
	}

	bookRepo := books.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	importRepo := imports.NewRepository(db)

	app := &App{
		Config: cfg,
		DB:     db,
		Mirror: m,
		Sync:   services.NewMirrorSync(bookRepo, customerRepo, orderRepo, importRepo, m),
	}
	app.Books = services.NewBookService(bookRepo, app.Sync)
	app.Customers = services.NewCustomerService(customerRepo, app.Sync)
	app.Orders = services.NewOrderService(orderRepo, app.Sync)
	app.Imports = services.NewImportService(importRepo, app.Sync)
	app.Checkout = services.NewCheckout(app.Orders, app.Imports, bookRepo, customerRepo)
	app.Reports = services.NewReportService(reports.NewRepository(db))

	return app, nil
}

// Close releases the mirror client and the database pool.
func (a *App) Close(ctx context.Context) {
	if err := a.Mirror.Close(ctx); err != nil {
		log.Printf("Error closing mirror: %v", err)
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
