package reports

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/entities"
)

type fixture struct {
	db        *database.Database
	orders    *orders.Repository
	repo      *Repository
	books     map[string]*entities.Book
	customers map[string]*entities.Customer
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:          config.DriverSQLite,
		Name:            filepath.Join(t.TempDir(), "reports.db"),
		ConnectAttempts: 1,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:        db,
		orders:    orders.NewRepository(db),
		repo:      NewRepository(db),
		books:     map[string]*entities.Book{},
		customers: map[string]*entities.Customer{},
	}
	return f
}

func (f *fixture) book(t *testing.T, code, publisher string, stock int, price int64) {
	t.Helper()
	b := &entities.Book{Code: code, Title: "Title " + code, Author: "Author " + code, Publisher: publisher, QuantityInStock: stock, Price: decimal.NewFromInt(price)}
	require.NoError(t, f.db.DB.Create(b).Error)
	f.books[code] = b
}

func (f *fixture) customer(t *testing.T, code, name string) {
	t.Helper()
	c := &entities.Customer{Code: code, FullName: name}
	require.NoError(t, f.db.DB.Create(c).Error)
	f.customers[code] = c
}

type line struct {
	book string
	qty  int
}

// order creates an order for the customer and, when complete is set,
// finalizes it.
func (f *fixture) order(t *testing.T, code, customer string, date time.Time, complete bool, lines ...line) {
	t.Helper()
	ctx := context.Background()
	o := &entities.Order{Code: code, CustomerID: f.customers[customer].ID, OrderDate: date}
	require.NoError(t, f.orders.Create(ctx, o))
	for _, l := range lines {
		b := f.books[l.book]
		require.NoError(t, f.orders.AddLine(ctx, &entities.OrderDetail{OrderID: o.ID, BookID: b.ID, Quantity: l.qty, UnitPrice: b.Price}))
	}
	if complete {
		_, _, err := f.orders.Finalize(ctx, o.ID)
		require.NoError(t, err)
	}
}

func march(day int) time.Time {
	return time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
}

func seeded(t *testing.T) *fixture {
	f := setupFixture(t)
	f.book(t, "B1", "NXB Trẻ", 10, 100000)
	f.book(t, "B2", "NXB Trẻ", 5, 50000)
	f.book(t, "B3", "Kim Đồng", 2, 200000)
	f.book(t, "B4", "", 100, 1000)
	f.customer(t, "C1", "Alice")
	f.customer(t, "C2", "Bob")
	f.customer(t, "C3", "Carol")

	f.order(t, "DH1", "C1", march(2), true, line{"B1", 3})
	f.order(t, "DH2", "C1", march(10), true, line{"B2", 4}, line{"B1", 1})
	f.order(t, "DH3", "C2", time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC), true, line{"B3", 1})
	f.order(t, "DH4", "C2", march(11), false, line{"B1", 5}) // pending, ignored everywhere
	return f
}

func TestRepository_BestSellers(t *testing.T) {
	ctx := context.Background()
	f := seeded(t)

	t.Run("ranks within period by quantity", func(t *testing.T) {
		rows, err := f.repo.BestSellers(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "B1", rows[0].BookCode)
		assert.Equal(t, int64(4), rows[0].TotalSold)
		assert.True(t, decimal.NewFromInt(400000).Equal(rows[0].TotalRevenue))
		assert.Equal(t, "B2", rows[1].BookCode)
	})

	t.Run("zero start means all time", func(t *testing.T) {
		rows, err := f.repo.BestSellers(ctx, time.Time{}, time.Time{}, 10)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("respects limit", func(t *testing.T) {
		rows, err := f.repo.BestSellers(ctx, time.Time{}, time.Time{}, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestRepository_InventoryByPublisher(t *testing.T) {
	f := seeded(t)

	rows, err := f.repo.InventoryByPublisher(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2, "books without publisher are excluded")

	// Stock after sales: B1 10-3-1-5=1, B2 5-4=1, B3 2-1=1.
	assert.Equal(t, "Kim Đồng", rows[0].Publisher)
	assert.True(t, decimal.NewFromInt(200000).Equal(rows[0].TotalValue), rows[0].TotalValue.String())
	assert.Equal(t, "NXB Trẻ", rows[1].Publisher)
	assert.Equal(t, int64(2), rows[1].BookCount)
	assert.Equal(t, int64(2), rows[1].TotalStock)
	assert.True(t, decimal.NewFromInt(150000).Equal(rows[1].TotalValue), rows[1].TotalValue.String())
}

func TestRepository_RegularCustomers(t *testing.T) {
	ctx := context.Background()
	f := seeded(t)

	t.Run("keeps customers at or above threshold", func(t *testing.T) {
		rows, err := f.repo.RegularCustomers(ctx, 2)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "C1", rows[0].CustomerCode)
		assert.Equal(t, int64(2), rows[0].OrderCount)
		assert.True(t, decimal.NewFromInt(600000).Equal(rows[0].TotalSpent), rows[0].TotalSpent.String())
	})

	t.Run("empty result when nobody qualifies", func(t *testing.T) {
		rows, err := f.repo.RegularCustomers(ctx, 3)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestRepository_RevenueByBook(t *testing.T) {
	f := seeded(t)

	rows, err := f.repo.RevenueByBook(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3, "B4 never sold")

	assert.Equal(t, "B1", rows[0].BookCode)
	assert.Equal(t, int64(2), rows[0].OrderCount)
	assert.Equal(t, int64(4), rows[0].TotalSold)
	assert.True(t, decimal.NewFromInt(400000).Equal(rows[0].TotalRevenue))
	// B2 and B3 tie on revenue; code breaks the tie.
	assert.Equal(t, "B2", rows[1].BookCode)
	assert.Equal(t, "B3", rows[2].BookCode)
}

func TestRepository_TopCustomers(t *testing.T) {
	f := seeded(t)

	rows, err := f.repo.TopCustomers(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 3, "customers without orders are included")

	assert.Equal(t, "C1", rows[0].CustomerCode)
	assert.Equal(t, int64(8), rows[0].TotalBooks)
	assert.Equal(t, int64(2), rows[0].OrderCount)
	assert.True(t, decimal.NewFromInt(600000).Equal(rows[0].TotalSpent))

	assert.Equal(t, "C2", rows[1].CustomerCode)
	assert.Equal(t, int64(1), rows[1].TotalBooks, "pending order does not count")

	assert.Equal(t, "C3", rows[2].CustomerCode)
	assert.Zero(t, rows[2].TotalBooks)
	assert.True(t, rows[2].TotalSpent.IsZero())
}

func TestRepository_CountsAndDates(t *testing.T) {
	ctx := context.Background()
	f := seeded(t)

	counts, err := f.repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Books: 4, Customers: 3, Orders: 4}, counts)

	dates, err := f.repo.CompletedOrderDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.True(t, dates[0].Equal(march(10)))
	assert.Equal(t, time.February, dates[2].Month())
}
