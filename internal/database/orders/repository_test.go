package orders

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
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

func setupTestDB(t *testing.T) (*database.Database, *Repository) {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:          config.DriverSQLite,
		Name:            filepath.Join(t.TempDir(), "orders.db"),
		ConnectAttempts: 1,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, NewRepository(db)
}

func createTestBook(t *testing.T, db *database.Database, code string, stock int, price int64) *entities.Book {
	t.Helper()
	book := &entities.Book{Code: code, Title: "Book " + code, QuantityInStock: stock, Price: decimal.NewFromInt(price)}
	require.NoError(t, db.DB.Create(book).Error)
	return book
}

func createTestOrder(t *testing.T, repo *Repository, code string, customerID uint, date time.Time) *entities.Order {
	t.Helper()
	order := &entities.Order{Code: code, CustomerID: customerID, OrderDate: date}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func stockOf(t *testing.T, db *database.Database, bookID uint) int {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.DB.First(&book, bookID).Error)
	return book.QuantityInStock
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("starts pending with zero total", func(t *testing.T) {
		_, repo := setupTestDB(t)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusPending, stored.Status)
		assert.True(t, stored.TotalAmount.IsZero())
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		_, repo := setupTestDB(t)
		createTestOrder(t, repo, "DH001", 1, time.Now())

		err := repo.Create(ctx, &entities.Order{Code: "DH001", CustomerID: 2, OrderDate: time.Now()})
		assert.ErrorIs(t, err, errs.ErrConstraint)
	})
}

func TestRepository_AddLine(t *testing.T) {
	ctx := context.Background()

	t.Run("stores subtotal and decrements stock", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 10, 100000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		line := &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(100000)}
		require.NoError(t, repo.AddLine(ctx, line))

		assert.True(t, decimal.NewFromInt(300000).Equal(line.Subtotal))
		assert.Equal(t, 7, stockOf(t, db, book.ID))
	})

	t.Run("does not re-check stock", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 1, 1000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(1000)}))
		assert.Equal(t, -3, stockOf(t, db, book.ID))
	})

	t.Run("rejects unknown order and unknown book", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 5, 1000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		err := repo.AddLine(ctx, &entities.OrderDetail{OrderID: 999, BookID: book.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, errs.ErrNotFound)

		err = repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: 999, Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, errs.ErrNotFound)

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Details, "failed line must be rolled back")
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 5, 1000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		err := repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 0, UnitPrice: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, errs.ErrInvalid)
		assert.NotErrorIs(t, err, errs.ErrConstraint)
		assert.Equal(t, 5, stockOf(t, db, book.ID))
	})

	t.Run("rejects lines on completed order", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 5, 1000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)}))
		_, _, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)

		err = repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)})
		assert.ErrorIs(t, err, errs.ErrConstraint)
	})
}

func TestRepository_Finalize(t *testing.T) {
	ctx := context.Background()

	t.Run("sums line items and completes", func(t *testing.T) {
		db, repo := setupTestDB(t)
		b1 := createTestBook(t, db, "B001", 10, 100000)
		b2 := createTestBook(t, db, "B002", 10, 25500)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: b1.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(100000)}))
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: b2.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("25500.5")}))

		finalized, already, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)
		assert.False(t, already)
		assert.Equal(t, entities.OrderStatusCompleted, finalized.Status)
		assert.True(t, decimal.RequireFromString("351001").Equal(finalized.TotalAmount), finalized.TotalAmount.String())

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusCompleted, stored.Status)
		assert.True(t, finalized.TotalAmount.Equal(stored.TotalAmount))
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := createTestBook(t, db, "B001", 10, 100000)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100000)}))

		first, _, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)
		second, already, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, already)
		assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	})

	t.Run("empty order fails with its own kind", func(t *testing.T) {
		_, repo := setupTestDB(t)
		order := createTestOrder(t, repo, "DH001", 1, time.Now())

		_, _, err := repo.Finalize(ctx, order.ID)
		assert.ErrorIs(t, err, errs.ErrEmptyOrder)

		stored, err := repo.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusPending, stored.Status)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		_, repo := setupTestDB(t)

		_, _, err := repo.Finalize(ctx, 42)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestRepository_ListAndStats(t *testing.T) {
	ctx := context.Background()
	db, repo := setupTestDB(t)
	require.NoError(t, db.DB.Create(&entities.Customer{Code: "C001", FullName: "Alice"}).Error)
	book := createTestBook(t, db, "B001", 100, 1000)

	day := func(d int) time.Time { return time.Date(2024, 3, d, 10, 30, 0, 0, time.UTC) }
	complete := func(code string, date time.Time, qty int) {
		order := createTestOrder(t, repo, code, 1, date)
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: qty, UnitPrice: decimal.NewFromInt(1000)}))
		_, _, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)
	}
	complete("DH001", day(1), 1)
	complete("DH002", day(15), 2)
	complete("DH003", day(31), 3)
	createTestOrder(t, repo, "DH004", 99, day(15)) // pending, unknown customer

	t.Run("lists newest first with customer name", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "DH003", list[0].OrderCode)
		assert.Equal(t, "Alice", list[0].CustomerName)
		assert.Empty(t, list[1].CustomerName, "customer 99 does not exist")
		assert.Equal(t, "DH001", list[3].OrderCode)
	})

	t.Run("range bounds are inclusive whole days", func(t *testing.T) {
		stats, err := repo.Stats(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.OrderCount)
		assert.True(t, decimal.NewFromInt(3000).Equal(stats.Revenue), stats.Revenue.String())
	})

	t.Run("empty range yields zero tuple", func(t *testing.T) {
		stats, err := repo.Stats(ctx, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Zero(t, stats.OrderCount)
		assert.True(t, stats.Revenue.IsZero())
	})
}

func TestRepository_StatsInShopZone(t *testing.T) {
	ctx := context.Background()
	db, repo := setupTestDB(t)
	book := createTestBook(t, db, "B001", 100, 1000)
	ict := time.FixedZone("ICT", 7*3600)

	complete := func(code string, date time.Time) {
		order := createTestOrder(t, repo, code, 1, date)
		require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)}))
		_, _, err := repo.Finalize(ctx, order.ID)
		require.NoError(t, err)
	}
	complete("DH001", time.Date(2024, 3, 15, 10, 0, 0, 0, ict))
	complete("DH002", time.Date(2024, 3, 15, 0, 30, 0, 0, ict)) // 03-14 17:30Z
	complete("DH003", time.Date(2024, 3, 16, 6, 0, 0, 0, ict))  // 03-15 23:00Z

	day, err := time.ParseInLocation("2006-01-02", "2024-03-15", ict)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.OrderCount, "both orders placed on the 15th local time, not the 16th")
	assert.True(t, decimal.NewFromInt(2000).Equal(stats.Revenue), stats.Revenue.String())
}

func TestDayBounds(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	from, to := dayBounds(time.Date(2024, 3, 15, 0, 0, 0, 0, ict), time.Date(2024, 3, 15, 0, 0, 0, 0, ict))

	assert.Equal(t, time.Date(2024, 3, 14, 17, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 15, 16, 59, 59, 999999999, time.UTC), to)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db, repo := setupTestDB(t)
	book := createTestBook(t, db, "B001", 10, 1000)
	order := createTestOrder(t, repo, "DH001", 1, time.Now())
	require.NoError(t, repo.AddLine(ctx, &entities.OrderDetail{OrderID: order.ID, BookID: book.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(1000)}))
	require.Equal(t, 6, stockOf(t, db, book.ID))

	require.NoError(t, repo.Delete(ctx, order.ID))

	assert.Equal(t, 10, stockOf(t, db, book.ID), "stock taken by lines is returned")
	_, err := repo.Get(ctx, order.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, order.ID), errs.ErrNotFound)
}
