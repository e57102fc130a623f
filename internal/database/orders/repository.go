// Package orders provides database operations for the sales order workflow:
// create a Pending order, add line items, then finalize it to Completed.
//
//	var _ services.OrderStore = (*Repository)(nil)
package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

// Summary is an order header joined with its customer's name.
type Summary struct {
	OrderID      uint                 `json:"order_id"`
	OrderCode    string               `json:"order_code"`
	CustomerID   uint                 `json:"customer_id"`
	CustomerName string               `json:"customer_name"`
	OrderDate    time.Time            `json:"order_date"`
	TotalAmount  decimal.Decimal      `json:"total_amount"`
	Status       entities.OrderStatus `json:"status"`
}

// Stats summarizes completed orders over a date range.
type Stats struct {
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Repository handles all order database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new orders repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Create inserts a Pending order with a zero total. The order code must be
// unused.
func (r *Repository) Create(ctx context.Context, order *entities.Order) error {
	const op = "orders.create"
	order.Status = entities.OrderStatusPending
	order.TotalAmount = decimal.Zero
	order.OrderDate = order.OrderDate.UTC()
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Order{}).Where("order_code = ?", order.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Newf(errs.KindConstraint, op, "order code %q already exists", order.Code)
		}
		return tx.Omit("Details").Create(order).Error
	})
}

// AddLine inserts a line item and takes its quantity out of the book's stock
// in one transaction. Stock is not checked; callers that care check first.
func (r *Repository) AddLine(ctx context.Context, line *entities.OrderDetail) error {
	const op = "orders.add_line"
	if line.Quantity <= 0 {
		return errs.Newf(errs.KindInvalid, op, "quantity must be positive, got %d", line.Quantity)
	}
	line.Subtotal = entities.LineSubtotal(line.Quantity, line.UnitPrice)

	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var order entities.Order
		if err := tx.First(&order, line.OrderID).Error; err != nil {
			return err
		}
		if order.Status != entities.OrderStatusPending {
			return errs.Newf(errs.KindConstraint, op, "order %d is %s", order.ID, order.Status)
		}
		if err := tx.Create(line).Error; err != nil {
			return err
		}
		res := tx.Model(&entities.Book{}).
			Where("book_id = ?", line.BookID).
			UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", line.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "book %d", line.BookID)
		}
		return nil
	})
}

// Finalize settles the order total as the sum of its line subtotals and marks
// it Completed. Finalizing a Completed order changes nothing and reports
// alreadyCompleted. An order without lines fails with EmptyOrder.
func (r *Repository) Finalize(ctx context.Context, orderID uint) (order *entities.Order, alreadyCompleted bool, err error) {
	const op = "orders.finalize"
	var result entities.Order
	err = r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Preload("Details").First(&result, orderID).Error; err != nil {
			return err
		}
		if result.Status == entities.OrderStatusCompleted {
			alreadyCompleted = true
			return nil
		}
		if len(result.Details) == 0 {
			return errs.Newf(errs.KindEmptyOrder, op, "order %d has no line items", orderID)
		}

		total := decimal.Zero
		for _, d := range result.Details {
			total = total.Add(entities.LineSubtotal(d.Quantity, d.UnitPrice))
		}
		result.TotalAmount = total
		result.Status = entities.OrderStatusCompleted
		return tx.Model(&entities.Order{}).
			Where("order_id = ?", orderID).
			Updates(map[string]any{
				"total_amount": total,
				"status":       entities.OrderStatusCompleted,
			}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &result, alreadyCompleted, nil
}

// Get retrieves an order with its line items.
func (r *Repository) Get(ctx context.Context, orderID uint) (*entities.Order, error) {
	var order entities.Order
	err := r.db.Read(ctx, "orders.get", func(db *gorm.DB) error {
		return db.Preload("Details").First(&order, orderID).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// IDs returns every order id, oldest first.
func (r *Repository) IDs(ctx context.Context) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.Read(ctx, "orders.ids", func(db *gorm.DB) error {
		return db.Model(&entities.Order{}).Order("order_id ASC").Pluck("order_id", &ids).Error
	})
	return ids, err
}

// List returns every order with its customer's name, newest first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	return database.Query[Summary](ctx, r.db, "orders.list", `
		SELECT o.order_id, o.order_code, o.customer_id,
		       COALESCE(c.full_name, '') AS customer_name,
		       o.order_date, o.total_amount, o.status
		FROM orders o
		LEFT JOIN customers c ON c.customer_id = o.customer_id
		ORDER BY o.order_date DESC, o.order_id DESC`)
}

// Stats counts completed orders dated within [start, end] and sums their
// totals. Both bounds are whole days: start from its first instant, end
// through its last.
func (r *Repository) Stats(ctx context.Context, start, end time.Time) (Stats, error) {
	from, to := dayBounds(start, end)
	stats, err := database.QueryOne[Stats](ctx, r.db, "orders.stats", `
		SELECT COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS revenue
		FROM orders
		WHERE status = ? AND order_date BETWEEN ? AND ?`,
		entities.OrderStatusCompleted, from, to)
	if err != nil {
		return Stats{Revenue: decimal.Zero}, err
	}
	return stats, nil
}

// Delete removes an order and its lines, returning any stock the lines took.
// It is the compensation step for an order that could not be completed.
func (r *Repository) Delete(ctx context.Context, orderID uint) error {
	const op = "orders.delete"
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var details []entities.OrderDetail
		if err := tx.Where("order_id = ?", orderID).Find(&details).Error; err != nil {
			return err
		}
		for _, d := range details {
			err := tx.Model(&entities.Book{}).
				Where("book_id = ?", d.BookID).
				UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", d.Quantity)).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&entities.OrderDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.Order{}, orderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "order %d", orderID)
		}
		return nil
	})
}

// dayBounds spans the calendar days of start and end in their own zones,
// converted to UTC to match stored order dates.
func dayBounds(start, end time.Time) (time.Time, time.Time) {
	y, m, d := start.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	y, m, d = end.Date()
	to := time.Date(y, m, d+1, 0, 0, 0, 0, end.Location()).Add(-time.Nanosecond)
	return from.UTC(), to.UTC()
}
