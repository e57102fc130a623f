package imports

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
		Name:            filepath.Join(t.TempDir(), "imports.db"),
		ConnectAttempts: 1,
		LogLevel:        "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, NewRepository(db)
}

func TestRepository_AddLine(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := &entities.Book{Code: "B001", Title: "Foo", QuantityInStock: 7}
		require.NoError(t, db.DB.Create(book).Error)
		batch := &entities.ImportBatch{Code: "PN001", ImportDate: time.Now()}
		require.NoError(t, repo.Create(ctx, batch))

		err := repo.AddLine(ctx, &entities.ImportDetail{ImportID: batch.ID, BookID: book.ID, Quantity: -3, UnitPrice: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, errs.ErrInvalid)

		var after entities.Book
		require.NoError(t, db.DB.First(&after, book.ID).Error)
		assert.Equal(t, 7, after.QuantityInStock)
	})

	t.Run("accumulates running total and stock", func(t *testing.T) {
		db, repo := setupTestDB(t)
		book := &entities.Book{Code: "B001", Title: "Foo", QuantityInStock: 7, Price: decimal.NewFromInt(100000)}
		require.NoError(t, db.DB.Create(book).Error)

		batch := &entities.ImportBatch{Code: "PN001", ImportDate: time.Now(), Supplier: "Fahasa"}
		require.NoError(t, repo.Create(ctx, batch))

		for i := 0; i < 2; i++ {
			require.NoError(t, repo.AddLine(ctx, &entities.ImportDetail{
				ImportID: batch.ID, BookID: book.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(80000),
			}))
		}

		stored, err := repo.Get(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(800000).Equal(stored.TotalAmount), stored.TotalAmount.String())
		assert.Len(t, stored.Details, 2)

		var after entities.Book
		require.NoError(t, db.DB.First(&after, book.ID).Error)
		assert.Equal(t, 17, after.QuantityInStock)
	})

	t.Run("failed line leaves total and stock untouched", func(t *testing.T) {
		_, repo := setupTestDB(t)
		batch := &entities.ImportBatch{Code: "PN001", ImportDate: time.Now()}
		require.NoError(t, repo.Create(ctx, batch))

		err := repo.AddLine(ctx, &entities.ImportDetail{ImportID: batch.ID, BookID: 404, Quantity: 1, UnitPrice: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, errs.ErrNotFound)

		stored, err := repo.Get(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalAmount.IsZero())
		assert.Empty(t, stored.Details)
	})
}

func TestRepository_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	db, repo := setupTestDB(t)
	book := &entities.Book{Code: "B001", Title: "Foo", QuantityInStock: 0}
	require.NoError(t, db.DB.Create(book).Error)

	older := &entities.ImportBatch{Code: "PN001", ImportDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &entities.ImportBatch{Code: "PN002", ImportDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	t.Run("rejects duplicate code", func(t *testing.T) {
		assert.ErrorIs(t, repo.Create(ctx, &entities.ImportBatch{Code: "PN001"}), errs.ErrConstraint)
	})

	t.Run("lists newest first", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "PN002", list[0].Code)
	})

	t.Run("delete reverses stock", func(t *testing.T) {
		require.NoError(t, repo.AddLine(ctx, &entities.ImportDetail{ImportID: newer.ID, BookID: book.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(1)}))
		require.NoError(t, repo.Delete(ctx, newer.ID))

		var after entities.Book
		require.NoError(t, db.DB.First(&after, book.ID).Error)
		assert.Zero(t, after.QuantityInStock)

		ids, err := repo.IDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{older.ID}, ids)
	})
}
