package services

import (
	"context"
	"time"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// BookStore is the relational side of book operations.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	Update(ctx context.Context, book *entities.Book) (*entities.Book, error)
	Delete(ctx context.Context, code string) (uint, error)
	GetByCode(ctx context.Context, code string) (*entities.Book, error)
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	List(ctx context.Context) ([]entities.Book, error)
	Search(ctx context.Context, f books.Filter) ([]entities.Book, error)
}

type CustomerStore interface {
	Create(ctx context.Context, customer *entities.Customer) error
	Update(ctx context.Context, customer *entities.Customer) (*entities.Customer, error)
	Delete(ctx context.Context, code string) (uint, error)
	GetByCode(ctx context.Context, code string) (*entities.Customer, error)
	GetByID(ctx context.Context, id uint) (*entities.Customer, error)
	List(ctx context.Context) ([]entities.Customer, error)
	Search(ctx context.Context, f customers.Filter) ([]entities.Customer, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *entities.Order) error
	AddLine(ctx context.Context, line *entities.OrderDetail) error
	Finalize(ctx context.Context, orderID uint) (*entities.Order, bool, error)
	Get(ctx context.Context, orderID uint) (*entities.Order, error)
	IDs(ctx context.Context) ([]uint, error)
	List(ctx context.Context) ([]orders.Summary, error)
	Stats(ctx context.Context, start, end time.Time) (orders.Stats, error)
	Delete(ctx context.Context, orderID uint) error
}

type ImportStore interface {
	Create(ctx context.Context, batch *entities.ImportBatch) error
	AddLine(ctx context.Context, line *entities.ImportDetail) error
	Get(ctx context.Context, importID uint) (*entities.ImportBatch, error)
	IDs(ctx context.Context) ([]uint, error)
	List(ctx context.Context) ([]entities.ImportBatch, error)
	Delete(ctx context.Context, importID uint) error
}

type ReportStore interface {
	BestSellers(ctx context.Context, from, to time.Time, limit int) ([]reports.BestSeller, error)
	InventoryByPublisher(ctx context.Context) ([]reports.PublisherInventory, error)
	RegularCustomers(ctx context.Context, minOrders int) ([]reports.RegularCustomer, error)
	RevenueByBook(ctx context.Context) ([]reports.BookRevenue, error)
	TopCustomers(ctx context.Context, limit int) ([]reports.CustomerPurchases, error)
	Counts(ctx context.Context) (reports.Counts, error)
	CompletedOrderDates(ctx context.Context) ([]time.Time, error)
}

// Mirror is the document side of every write. *mirror.Mirror implements it.
type Mirror interface {
	Write(ctx context.Context, collection string, record mirror.Document) error
	Upsert(ctx context.Context, collection string, filter, update mirror.Document) error
	Delete(ctx context.Context, collection string, filter mirror.Document) error
}

// RetryQueue schedules a later resync of one mirrored row.
type RetryQueue interface {
	EnqueueMirrorRetry(ctx context.Context, collection string, id uint) error
}

// Outcome is the result of a dual write. A nil error from the same call means
// the relational write committed; MirrorErr reports whether the document
// mirror caught up.
type Outcome struct {
	ID        uint  `json:"id"`
	MirrorErr error `json:"-"`
}

func (o Outcome) MirrorSynced() bool {
	return o.MirrorErr == nil
}
