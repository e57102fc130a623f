// Package books provides database operations for the book catalog.
//
// This package implements the BookStore interface defined in
// internal/services/interfaces.go.
//
// # Interface Implementation
//
//	var _ services.BookStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	found, err := repo.Search(ctx, books.Filter{Author: ptr("Nguyễn Nhật Ánh")})
package books

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

// Filter narrows a book search. Nil fields are ignored; the rest are ANDed.
// String fields match as substrings, Year exactly, and the price bounds are
// inclusive.
type Filter struct {
	Title     *string
	Code      *string
	Author    *string
	Publisher *string
	Year      *int
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
}

// Repository handles all book database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new books repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Create inserts a book after checking that its code is free. The unique index
// on book_code backs the check when two inserts race.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	const op = "books.create"
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("book_code = ?", book.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Newf(errs.KindConstraint, op, "book code %q already exists", book.Code)
		}
		return tx.Create(book).Error
	})
}

// Update overwrites every editable field of the book identified by book.Code
// and returns the stored row.
func (r *Repository) Update(ctx context.Context, book *entities.Book) (*entities.Book, error) {
	const op = "books.update"
	var updated entities.Book
	err := r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		res := tx.Model(&entities.Book{}).
			Where("book_code = ?", book.Code).
			Updates(map[string]any{
				"title":             book.Title,
				"author":            book.Author,
				"publisher":         book.Publisher,
				"publish_year":      book.PublishYear,
				"quantity_in_stock": book.QuantityInStock,
				"price":             book.Price,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "book %q", book.Code)
		}
		return tx.Where("book_code = ?", book.Code).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the book with the given code and returns its id. Order and
// import history referencing the book is left untouched.
func (r *Repository) Delete(ctx context.Context, code string) (uint, error) {
	const op = "books.delete"
	var id uint
	err := r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Where("book_code = ?", code).First(&book).Error; err != nil {
			return err
		}
		id = book.ID
		return tx.Delete(&entities.Book{}, book.ID).Error
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByCode retrieves a book by its natural code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Read(ctx, "books.get_by_code", func(db *gorm.DB) error {
		return db.Where("book_code = ?", code).First(&book).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByID retrieves a book by its system-assigned id.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Read(ctx, "books.get_by_id", func(db *gorm.DB) error {
		return db.First(&book, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns every book ordered by id.
func (r *Repository) List(ctx context.Context) ([]entities.Book, error) {
	books := make([]entities.Book, 0)
	err := r.db.Read(ctx, "books.list", func(db *gorm.DB) error {
		return db.Order("book_id ASC").Find(&books).Error
	})
	return books, err
}

// Search returns the books matching every populated filter field, ordered by
// title.
func (r *Repository) Search(ctx context.Context, f Filter) ([]entities.Book, error) {
	books := make([]entities.Book, 0)
	err := r.db.Read(ctx, "books.search", func(db *gorm.DB) error {
		q := db.Model(&entities.Book{})
		if f.Title != nil {
			q = q.Where("title LIKE ?"+database.LikeEscape, database.Contains(*f.Title))
		}
		if f.Code != nil {
			q = q.Where("book_code LIKE ?"+database.LikeEscape, database.Contains(*f.Code))
		}
		if f.Author != nil {
			q = q.Where("author LIKE ?"+database.LikeEscape, database.Contains(*f.Author))
		}
		if f.Publisher != nil {
			q = q.Where("publisher LIKE ?"+database.LikeEscape, database.Contains(*f.Publisher))
		}
		if f.Year != nil {
			q = q.Where("publish_year = ?", *f.Year)
		}
		if f.MinPrice != nil {
			q = q.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("price <= ?", *f.MaxPrice)
		}
		return q.Order("title ASC").Find(&books).Error
	})
	return books, err
}
