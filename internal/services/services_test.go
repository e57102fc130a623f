package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/database/imports"
	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

type recordingQueue struct {
	mu    sync.Mutex
	calls []string
}

func (q *recordingQueue) EnqueueMirrorRetry(_ context.Context, collection string, _ uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, collection)
	return nil
}

type testEnv struct {
	db        *database.Database
	backend   *mirror.MemoryBackend
	queue     *recordingQueue
	sync      *MirrorSync
	books     *BookService
	customers *CustomerService
	orders    *OrderService
	imports   *ImportService
	reports   *ReportService
	checkout  *Checkout
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:          config.DriverSQLite,
		Name:            filepath.Join(t.TempDir(), "services.db"),
		ConnectAttempts: 1,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend := mirror.NewMemoryBackend()
	m := mirror.New(backend)

	bookRepo := books.NewRepository(db)
	customerRepo := customers.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	importRepo := imports.NewRepository(db)

	env := &testEnv{db: db, backend: backend, queue: &recordingQueue{}}
	env.sync = NewMirrorSync(bookRepo, customerRepo, orderRepo, importRepo, m)
	env.sync.SetRetryQueue(env.queue)
	env.books = NewBookService(bookRepo, env.sync)
	env.customers = NewCustomerService(customerRepo, env.sync)
	env.orders = NewOrderService(orderRepo, env.sync)
	env.imports = NewImportService(importRepo, env.sync)
	env.reports = NewReportService(reports.NewRepository(db))
	env.checkout = NewCheckout(env.orders, env.imports, bookRepo, customerRepo)
	return env
}

func (env *testEnv) stock(t *testing.T, code string) int {
	t.Helper()
	book, err := env.books.GetBook(context.Background(), code)
	require.NoError(t, err)
	return book.QuantityInStock
}

func TestBookService(t *testing.T) {
	ctx := context.Background()

	t.Run("add mirrors with display defaults", func(t *testing.T) {
		env := setupEnv(t)
		out, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "Dế Mèn", QuantityInStock: 5, Price: decimal.NewFromInt(50000)})
		require.NoError(t, err)
		assert.True(t, out.MirrorSynced())
		assert.NotZero(t, out.ID)

		docs := env.backend.Find(mirror.CollectionBooks, mirror.Document{"book_id": int64(out.ID)})
		require.Len(t, docs, 1)
		assert.Equal(t, entities.PlaceholderText, docs[0]["author"])
		assert.Equal(t, entities.PlaceholderText, docs[0]["publisher"])
		assert.Equal(t, 50000.0, docs[0]["price"])
		assert.Equal(t, mirror.SourceSQLSync, docs[0]["source"])
	})

	t.Run("blank code is invalid input", func(t *testing.T) {
		env := setupEnv(t)
		_, err := env.books.AddBook(ctx, BookInput{Title: "A"})
		assert.ErrorIs(t, err, errs.ErrInvalid)
		assert.Empty(t, env.backend.Documents(mirror.CollectionBooks))
	})

	t.Run("duplicate code is rejected and not mirrored", func(t *testing.T) {
		env := setupEnv(t)
		_, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "A"})
		require.NoError(t, err)

		_, err = env.books.AddBook(ctx, BookInput{Code: "B001", Title: "B"})
		assert.ErrorIs(t, err, errs.ErrConstraint)
		assert.Len(t, env.backend.Documents(mirror.CollectionBooks), 1)
	})

	t.Run("update upserts the mirror", func(t *testing.T) {
		env := setupEnv(t)
		out, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "Old"})
		require.NoError(t, err)

		_, err = env.books.UpdateBook(ctx, BookInput{Code: "B001", Title: "New", Author: "Tô Hoài"})
		require.NoError(t, err)

		docs := env.backend.Find(mirror.CollectionBooks, mirror.Document{"book_id": int64(out.ID)})
		require.Len(t, docs, 1)
		assert.Equal(t, "New", docs[0]["title"])
		assert.Equal(t, "Tô Hoài", docs[0]["author"])
	})

	t.Run("update and delete of unknown code", func(t *testing.T) {
		env := setupEnv(t)
		_, err := env.books.UpdateBook(ctx, BookInput{Code: "NOPE", Title: "x"})
		assert.ErrorIs(t, err, errs.ErrNotFound)
		_, err = env.books.DeleteBook(ctx, "NOPE")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("delete removes the document", func(t *testing.T) {
		env := setupEnv(t)
		_, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "A"})
		require.NoError(t, err)

		_, err = env.books.DeleteBook(ctx, "B001")
		require.NoError(t, err)
		assert.Empty(t, env.backend.Documents(mirror.CollectionBooks))
	})

	t.Run("search ands populated fields", func(t *testing.T) {
		env := setupEnv(t)
		for _, in := range []BookInput{
			{Code: "B1", Title: "Go in Action", Publisher: "Manning", PublishYear: 2015, Price: decimal.NewFromInt(300)},
			{Code: "B2", Title: "Go Programming", Publisher: "Addison", PublishYear: 2015, Price: decimal.NewFromInt(500)},
			{Code: "B3", Title: "Rust", Publisher: "Manning", PublishYear: 2018, Price: decimal.NewFromInt(400)},
		} {
			_, err := env.books.AddBook(ctx, in)
			require.NoError(t, err)
		}
		title, year := "Go", 2015
		maxPrice := decimal.NewFromInt(400)
		found, err := env.books.SearchBooks(ctx, books.Filter{Title: &title, Year: &year, MaxPrice: &maxPrice})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "B1", found[0].Code)
	})
}

func TestMirrorIndependence(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	env.backend.Fail(errors.New("mongo down"))

	out, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "A", QuantityInStock: 3})
	require.NoError(t, err, "relational write commits regardless of the mirror")
	assert.False(t, out.MirrorSynced())
	assert.ErrorIs(t, out.MirrorErr, errs.ErrMirrorSync)
	assert.Equal(t, 3, env.stock(t, "B001"))
	assert.Equal(t, []string{mirror.CollectionBooks}, env.queue.calls)

	cust, err := env.customers.AddCustomer(ctx, CustomerInput{Code: "C001", FullName: "An"})
	require.NoError(t, err)
	assert.Error(t, cust.MirrorErr)

	// Once the mirror is back a resync catches the document up.
	env.backend.Fail(nil)
	require.NoError(t, env.sync.Resync(ctx, mirror.CollectionBooks, out.ID))
	assert.Len(t, env.backend.Documents(mirror.CollectionBooks), 1)
}

func TestMirrorIndependence_Workflows(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	_, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "A", QuantityInStock: 10, Price: decimal.NewFromInt(100000)})
	require.NoError(t, err)
	_, err = env.books.AddBook(ctx, BookInput{Code: "B002", Title: "B", QuantityInStock: 1})
	require.NoError(t, err)
	cust, err := env.customers.AddCustomer(ctx, CustomerInput{Code: "C001", FullName: "An"})
	require.NoError(t, err)
	order, err := env.orders.CreateOrder(ctx, "DH001", cust.ID, nil)
	require.NoError(t, err)
	book, err := env.books.GetBook(ctx, "B001")
	require.NoError(t, err)
	_, err = env.orders.AddOrderLine(ctx, order.ID, book.ID, 3, decimal.NewFromInt(100000))
	require.NoError(t, err)
	batch, err := env.imports.CreateImport(ctx, "NH001", nil, "NXB Trẻ")
	require.NoError(t, err)

	env.backend.Fail(errors.New("mongo down"))

	t.Run("update book", func(t *testing.T) {
		out, err := env.books.UpdateBook(ctx, BookInput{Code: "B001", Title: "A2", QuantityInStock: 7, Price: decimal.NewFromInt(100000)})
		require.NoError(t, err)
		assert.ErrorIs(t, out.MirrorErr, errs.ErrMirrorSync)

		updated, err := env.books.GetBook(ctx, "B001")
		require.NoError(t, err)
		assert.Equal(t, "A2", updated.Title)
	})

	t.Run("delete book", func(t *testing.T) {
		out, err := env.books.DeleteBook(ctx, "B002")
		require.NoError(t, err)
		assert.Error(t, out.MirrorErr)

		_, err = env.books.GetBook(ctx, "B002")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("finalize order", func(t *testing.T) {
		result, err := env.orders.FinalizeOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Error(t, result.MirrorErr)
		assert.True(t, decimal.NewFromInt(300000).Equal(result.TotalAmount))

		stored, err := env.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusCompleted, stored.Status)
	})

	t.Run("add import line", func(t *testing.T) {
		out, err := env.imports.AddImportLine(ctx, batch.ID, book.ID, 5, decimal.NewFromInt(80000))
		require.NoError(t, err)
		assert.Error(t, out.MirrorErr)
		assert.Equal(t, 12, env.stock(t, "B001"), "7 after the update, plus 5 received")

		stored, err := env.imports.GetImport(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(400000).Equal(stored.TotalAmount))
	})
}

func TestCustomerService(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	out, err := env.customers.AddCustomer(ctx, CustomerInput{Code: "C001", FullName: "Nguyễn Văn An", PhoneNumber: "0901"})
	require.NoError(t, err)
	docs := env.backend.Find(mirror.CollectionCustomers, mirror.Document{"customer_id": int64(out.ID)})
	require.Len(t, docs, 1)
	assert.Equal(t, entities.PlaceholderText, docs[0]["address"])
	assert.Equal(t, "0901", docs[0]["phone_number"])

	_, err = env.customers.AddCustomer(ctx, CustomerInput{Code: "C001", FullName: "Other"})
	assert.ErrorIs(t, err, errs.ErrConstraint)

	name := "Văn"
	found, err := env.customers.SearchCustomers(ctx, customers.Filter{Name: &name})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = env.customers.DeleteCustomer(ctx, "C001")
	require.NoError(t, err)
	assert.Empty(t, env.backend.Documents(mirror.CollectionCustomers))
}

func TestOrderWorkflow(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	book, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "Dế Mèn", QuantityInStock: 10, Price: decimal.NewFromInt(100000)})
	require.NoError(t, err)
	cust, err := env.customers.AddCustomer(ctx, CustomerInput{Code: "C001", FullName: "An"})
	require.NoError(t, err)

	date := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	order, err := env.orders.CreateOrder(ctx, "DH001", cust.ID, &date)
	require.NoError(t, err)

	_, err = env.orders.AddOrderLine(ctx, order.ID, book.ID, 3, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.Equal(t, 7, env.stock(t, "B001"))

	result, err := env.orders.FinalizeOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.True(t, decimal.NewFromInt(300000).Equal(result.TotalAmount))

	docs := env.backend.Find(mirror.CollectionOrders, mirror.Document{"order_id": int64(order.ID)})
	require.Len(t, docs, 1)
	assert.Equal(t, "Completed", docs[0]["status"])
	assert.Equal(t, 300000.0, docs[0]["total_amount"])
	assert.Equal(t, mirror.DateOf(date.In(time.Local)).Midnight(), docs[0]["order_day"])
	assert.Contains(t, docs[0], "completed_at")
	assert.Len(t, docs[0]["items"], 1)

	again, err := env.orders.FinalizeOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.True(t, result.TotalAmount.Equal(again.TotalAmount))

	stats, err := env.orders.OrderStats(ctx, date, date)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.OrderCount)
	assert.True(t, decimal.NewFromInt(300000).Equal(stats.Revenue))

	t.Run("empty order cannot be finalized", func(t *testing.T) {
		empty, err := env.orders.CreateOrder(ctx, "DH002", cust.ID, nil)
		require.NoError(t, err)
		_, err = env.orders.FinalizeOrder(ctx, empty.ID)
		assert.ErrorIs(t, err, errs.ErrEmptyOrder)
	})
}

func TestImportWorkflow(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	book, err := env.books.AddBook(ctx, BookInput{Code: "B001", Title: "A"})
	require.NoError(t, err)
	batch, err := env.imports.CreateImport(ctx, "PN001", nil, "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := env.imports.AddImportLine(ctx, batch.ID, book.ID, 5, decimal.NewFromInt(80000))
		require.NoError(t, err)
	}
	assert.Equal(t, 10, env.stock(t, "B001"))

	stored, err := env.imports.GetImport(ctx, batch.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800000).Equal(stored.TotalAmount))

	docs := env.backend.Find(mirror.CollectionImports, mirror.Document{"import_id": int64(batch.ID)})
	require.Len(t, docs, 1)
	assert.Equal(t, 800000.0, docs[0]["total_amount"])
	assert.Equal(t, entities.PlaceholderText, docs[0]["supplier"])
}

func TestCheckout_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *testEnv {
		env := setupEnv(t)
		_, err := env.books.AddBook(ctx, BookInput{Code: "B1", Title: "A", QuantityInStock: 5, Price: decimal.NewFromInt(1000)})
		require.NoError(t, err)
		_, err = env.books.AddBook(ctx, BookInput{Code: "B2", Title: "B", QuantityInStock: 1, Price: decimal.NewFromInt(2000)})
		require.NoError(t, err)
		_, err = env.customers.AddCustomer(ctx, CustomerInput{Code: "C1", FullName: "An"})
		require.NoError(t, err)
		env.checkout.now = func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) }
		env.checkout.suffix = func() int { return 123 }
		return env
	}

	t.Run("adds lines with stock and completes", func(t *testing.T) {
		env := seed(t)
		receipt, err := env.checkout.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerCode: "C1",
			Lines:        []LineRequest{{BookCode: "B1", Quantity: 2}, {BookCode: "B2", Quantity: 3}, {BookCode: "NOPE", Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "DH20240315093000123", receipt.Code)
		assert.True(t, decimal.NewFromInt(2000).Equal(receipt.TotalAmount))
		require.Len(t, receipt.Lines, 3)
		assert.True(t, receipt.Lines[0].Added)
		assert.False(t, receipt.Lines[1].Added)
		assert.Contains(t, receipt.Lines[1].Error, "insufficient stock")
		assert.False(t, receipt.Lines[2].Added)

		assert.Equal(t, 3, env.stock(t, "B1"))
		assert.Equal(t, 1, env.stock(t, "B2"))
	})

	t.Run("nothing added deletes the order", func(t *testing.T) {
		env := seed(t)
		_, err := env.checkout.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerCode: "C1",
			Lines:        []LineRequest{{BookCode: "B2", Quantity: 9}},
		})
		assert.ErrorIs(t, err, errs.ErrEmptyOrder)

		list, err := env.orders.ListOrders(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Empty(t, env.backend.Documents(mirror.CollectionOrders))
	})

	t.Run("unknown customer", func(t *testing.T) {
		env := seed(t)
		_, err := env.checkout.PlaceOrder(ctx, PlaceOrderRequest{CustomerCode: "C9", Lines: []LineRequest{{BookCode: "B1", Quantity: 1}}})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("code collision is retried", func(t *testing.T) {
		env := seed(t)
		codes := []int{123, 123, 456}
		env.checkout.suffix = func() int {
			next := codes[0]
			codes = codes[1:]
			return next
		}
		first, err := env.checkout.PlaceOrder(ctx, PlaceOrderRequest{CustomerCode: "C1", Lines: []LineRequest{{BookCode: "B1", Quantity: 1}}})
		require.NoError(t, err)
		second, err := env.checkout.PlaceOrder(ctx, PlaceOrderRequest{CustomerCode: "C1", Lines: []LineRequest{{BookCode: "B1", Quantity: 1}}})
		require.NoError(t, err)
		assert.NotEqual(t, first.Code, second.Code)
	})
}

func TestCheckout_ReceiveImport(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	_, err := env.books.AddBook(ctx, BookInput{Code: "B1", Title: "A", Price: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	receipt, err := env.checkout.ReceiveImport(ctx, ReceiveImportRequest{
		Supplier: "Fahasa",
		Lines:    []LineRequest{{BookCode: "B1", Quantity: 4, UnitPrice: decimal.NewFromInt(700)}, {BookCode: "B1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PN\d{14}\d{3}$`, receipt.Code)
	assert.True(t, decimal.NewFromInt(3800).Equal(receipt.TotalAmount), receipt.TotalAmount.String())
	assert.Equal(t, 5, env.stock(t, "B1"))

	_, err = env.checkout.ReceiveImport(ctx, ReceiveImportRequest{Lines: []LineRequest{{BookCode: "NOPE", Quantity: 1}}})
	assert.ErrorIs(t, err, errs.ErrEmptyOrder)
	list, err := env.imports.ListImports(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "failed receipt leaves no batch behind")
}

func TestMirrorSync(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	_, err := env.books.AddBook(ctx, BookInput{Code: "B1", Title: "A"})
	require.NoError(t, err)
	_, err = env.customers.AddCustomer(ctx, CustomerInput{Code: "C1", FullName: "An"})
	require.NoError(t, err)

	t.Run("resync of a deleted row removes its document", func(t *testing.T) {
		id, err := books.NewRepository(env.db).Delete(ctx, "B1")
		require.NoError(t, err)
		require.Len(t, env.backend.Documents(mirror.CollectionBooks), 1)

		require.NoError(t, env.sync.Resync(ctx, mirror.CollectionBooks, id))
		assert.Empty(t, env.backend.Documents(mirror.CollectionBooks))
	})

	t.Run("resync all pushes every row", func(t *testing.T) {
		_, err := env.books.AddBook(ctx, BookInput{Code: "B2", Title: "B"})
		require.NoError(t, err)
		result, err := env.sync.ResyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, ReconcileResult{Synced: 2}, result)
	})

	t.Run("unknown collection", func(t *testing.T) {
		assert.Error(t, env.sync.Resync(ctx, "widgets", 1))
	})
}
