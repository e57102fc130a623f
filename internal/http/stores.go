package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/services"
)

// This file consolidates the service interfaces used by HTTP controllers.
// The *services types implement them.

type BookService interface {
	AddBook(ctx context.Context, in services.BookInput) (services.Outcome, error)
	UpdateBook(ctx context.Context, in services.BookInput) (services.Outcome, error)
	DeleteBook(ctx context.Context, code string) (services.Outcome, error)
	GetBook(ctx context.Context, code string) (*entities.Book, error)
	SearchBooks(ctx context.Context, f books.Filter) ([]entities.Book, error)
}

type CustomerService interface {
	AddCustomer(ctx context.Context, in services.CustomerInput) (services.Outcome, error)
	UpdateCustomer(ctx context.Context, in services.CustomerInput) (services.Outcome, error)
	DeleteCustomer(ctx context.Context, code string) (services.Outcome, error)
	GetCustomer(ctx context.Context, code string) (*entities.Customer, error)
	SearchCustomers(ctx context.Context, f customers.Filter) ([]entities.Customer, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, code string, customerID uint, date *time.Time) (services.Outcome, error)
	AddOrderLine(ctx context.Context, orderID, bookID uint, qty int, unitPrice decimal.Decimal) (services.Outcome, error)
	FinalizeOrder(ctx context.Context, orderID uint) (services.FinalizeResult, error)
	GetOrder(ctx context.Context, orderID uint) (*entities.Order, error)
	ListOrders(ctx context.Context) ([]orders.Summary, error)
	OrderStats(ctx context.Context, start, end time.Time) (orders.Stats, error)
	DeleteOrder(ctx context.Context, orderID uint) (services.Outcome, error)
}

type ImportService interface {
	CreateImport(ctx context.Context, code string, date *time.Time, supplier string) (services.Outcome, error)
	AddImportLine(ctx context.Context, importID, bookID uint, qty int, unitPrice decimal.Decimal) (services.Outcome, error)
	GetImport(ctx context.Context, importID uint) (*entities.ImportBatch, error)
	ListImports(ctx context.Context) ([]entities.ImportBatch, error)
	DeleteImport(ctx context.Context, importID uint) (services.Outcome, error)
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, req services.PlaceOrderRequest) (services.Receipt, error)
	ReceiveImport(ctx context.Context, req services.ReceiveImportRequest) (services.Receipt, error)
}

type ReportService interface {
	BestSellers(ctx context.Context, year, month, limit int) ([]reports.BestSeller, error)
	InventoryByPublisher(ctx context.Context) ([]reports.PublisherInventory, error)
	RegularCustomers(ctx context.Context, minOrders int) ([]reports.RegularCustomer, error)
	RevenueByBook(ctx context.Context) ([]reports.BookRevenue, error)
	TopCustomers(ctx context.Context, limit int) ([]reports.CustomerPurchases, error)
	Dashboard(ctx context.Context) (services.Dashboard, error)
	MonthlyBestSellers(ctx context.Context) ([]services.MonthlyBestSeller, error)
}

// TaskQueue enqueues background mirror work and reports task status.
// *tasks.Client implements it.
type TaskQueue interface {
	EnqueueReconcile(ctx context.Context, reason string) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
