// Package reports provides the read-only aggregation queries behind the
// store's reports. Every query returns a non-nil, possibly empty, slice on
// success.
//
//	var _ services.ReportStore = (*Repository)(nil)
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

type BestSeller struct {
	BookID       uint            `json:"book_id"`
	BookCode     string          `json:"book_code"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Publisher    string          `json:"publisher"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type PublisherInventory struct {
	Publisher  string          `json:"publisher"`
	BookCount  int64           `json:"book_count"`
	TotalStock int64           `json:"total_stock"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type RegularCustomer struct {
	CustomerID   uint            `json:"customer_id"`
	CustomerCode string          `json:"customer_code"`
	FullName     string          `json:"full_name"`
	PhoneNumber  string          `json:"phone_number"`
	OrderCount   int64           `json:"order_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

type BookRevenue struct {
	BookID       uint            `json:"book_id"`
	BookCode     string          `json:"book_code"`
	Title        string          `json:"title"`
	Author       string          `json:"author"`
	Publisher    string          `json:"publisher"`
	OrderCount   int64           `json:"order_count"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type CustomerPurchases struct {
	CustomerID   uint            `json:"customer_id"`
	CustomerCode string          `json:"customer_code"`
	FullName     string          `json:"full_name"`
	TotalBooks   int64           `json:"total_books"`
	OrderCount   int64           `json:"order_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

type Counts struct {
	Books     int64 `json:"books"`
	Customers int64 `json:"customers"`
	Orders    int64 `json:"orders"`
}

type orderDate struct {
	OrderDate time.Time
}

// Repository runs report queries.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new reports repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// BestSellers ranks books by quantity sold in completed orders dated within
// [from, to). A zero from drops the period filter entirely.
func (r *Repository) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]BestSeller, error) {
	if from.IsZero() {
		return database.Query[BestSeller](ctx, r.db, "reports.best_sellers_all_time", `
			SELECT b.book_id, b.book_code, b.title, b.author, b.publisher,
			       SUM(od.quantity) AS total_sold, SUM(od.subtotal) AS total_revenue
			FROM order_details od
			JOIN orders o ON o.order_id = od.order_id
			JOIN books b ON b.book_id = od.book_id
			WHERE o.status = ?
			GROUP BY b.book_id, b.book_code, b.title, b.author, b.publisher
			ORDER BY total_sold DESC, total_revenue DESC, b.title ASC
			LIMIT ?`,
			entities.OrderStatusCompleted, limit)
	}
	return database.Query[BestSeller](ctx, r.db, "reports.best_sellers", `
		SELECT b.book_id, b.book_code, b.title, b.author, b.publisher,
		       SUM(od.quantity) AS total_sold, SUM(od.subtotal) AS total_revenue
		FROM order_details od
		JOIN orders o ON o.order_id = od.order_id
		JOIN books b ON b.book_id = od.book_id
		WHERE o.status = ? AND o.order_date >= ? AND o.order_date < ?
		GROUP BY b.book_id, b.book_code, b.title, b.author, b.publisher
		ORDER BY total_sold DESC, total_revenue DESC, b.title ASC
		LIMIT ?`,
		entities.OrderStatusCompleted, from.UTC(), to.UTC(), limit)
}

// InventoryByPublisher values the stock held per publisher. Books without a
// publisher are left out.
func (r *Repository) InventoryByPublisher(ctx context.Context) ([]PublisherInventory, error) {
	return database.Query[PublisherInventory](ctx, r.db, "reports.inventory_by_publisher", `
		SELECT publisher,
		       COUNT(*) AS book_count,
		       COALESCE(SUM(quantity_in_stock), 0) AS total_stock,
		       COALESCE(SUM(quantity_in_stock * price), 0) AS total_value
		FROM books
		WHERE publisher IS NOT NULL AND publisher <> ''
		GROUP BY publisher
		ORDER BY total_value DESC, publisher ASC`)
}

// RegularCustomers returns customers with at least minOrders completed orders,
// biggest spenders first.
func (r *Repository) RegularCustomers(ctx context.Context, minOrders int) ([]RegularCustomer, error) {
	return database.Query[RegularCustomer](ctx, r.db, "reports.regular_customers", `
		SELECT c.customer_id, c.customer_code, c.full_name, c.phone_number,
		       COUNT(o.order_id) AS order_count,
		       COALESCE(SUM(o.total_amount), 0) AS total_spent
		FROM customers c
		JOIN orders o ON o.customer_id = c.customer_id
		WHERE o.status = ?
		GROUP BY c.customer_id, c.customer_code, c.full_name, c.phone_number
		HAVING COUNT(o.order_id) >= ?
		ORDER BY total_spent DESC, c.customer_code ASC`,
		entities.OrderStatusCompleted, minOrders)
}

// RevenueByBook totals completed sales per book. Books that never sold are
// left out.
func (r *Repository) RevenueByBook(ctx context.Context) ([]BookRevenue, error) {
	return database.Query[BookRevenue](ctx, r.db, "reports.revenue_by_book", `
		SELECT b.book_id, b.book_code, b.title, b.author, b.publisher,
		       COUNT(DISTINCT o.order_id) AS order_count,
		       SUM(od.quantity) AS total_sold,
		       SUM(od.subtotal) AS total_revenue
		FROM books b
		JOIN order_details od ON od.book_id = b.book_id
		JOIN orders o ON o.order_id = od.order_id
		WHERE o.status = ?
		GROUP BY b.book_id, b.book_code, b.title, b.author, b.publisher
		ORDER BY total_revenue DESC, b.book_code ASC`,
		entities.OrderStatusCompleted)
}

// TopCustomers ranks every customer, including those with no completed
// orders, by books bought and then by amount spent.
func (r *Repository) TopCustomers(ctx context.Context, limit int) ([]CustomerPurchases, error) {
	return database.Query[CustomerPurchases](ctx, r.db, "reports.top_customers", `
		SELECT c.customer_id, c.customer_code, c.full_name,
		       COALESCE(SUM(od.quantity), 0) AS total_books,
		       COUNT(DISTINCT o.order_id) AS order_count,
		       COALESCE(SUM(od.subtotal), 0) AS total_spent
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.customer_id AND o.status = ?
		LEFT JOIN order_details od ON od.order_id = o.order_id
		GROUP BY c.customer_id, c.customer_code, c.full_name
		ORDER BY total_books DESC, total_spent DESC, c.customer_code ASC
		LIMIT ?`,
		entities.OrderStatusCompleted, limit)
}

// Counts returns the number of books, customers and orders on file.
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	return database.QueryOne[Counts](ctx, r.db, "reports.counts", `
		SELECT (SELECT COUNT(*) FROM books) AS books,
		       (SELECT COUNT(*) FROM customers) AS customers,
		       (SELECT COUNT(*) FROM orders) AS orders`)
}

// CompletedOrderDates returns the date of every completed order, newest first.
func (r *Repository) CompletedOrderDates(ctx context.Context) ([]time.Time, error) {
	rows, err := database.Query[orderDate](ctx, r.db, "reports.completed_order_dates", `
		SELECT order_date FROM orders WHERE status = ? ORDER BY order_date DESC`,
		entities.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(rows))
	for i, row := range rows {
		dates[i] = row.OrderDate
	}
	return dates, nil
}
