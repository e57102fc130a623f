package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// BookInput carries the editable fields of a book. Code identifies the book
// on update.
type BookInput struct {
	Code            string          `json:"book_code" yaml:"book_code"`
	Title           string          `json:"title" yaml:"title"`
	Author          string          `json:"author" yaml:"author"`
	Publisher       string          `json:"publisher" yaml:"publisher"`
	PublishYear     int             `json:"publish_year" yaml:"publish_year"`
	QuantityInStock int             `json:"quantity_in_stock" yaml:"quantity_in_stock"`
	Price           decimal.Decimal `json:"price" yaml:"price"`
}

func (in BookInput) entity() *entities.Book {
	return &entities.Book{
		Code:            strings.TrimSpace(in.Code),
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		Publisher:       strings.TrimSpace(in.Publisher),
		PublishYear:     in.PublishYear,
		QuantityInStock: in.QuantityInStock,
		Price:           in.Price,
	}
}

// BookService runs book operations against the relational store and mirrors
// each committed change.
type BookService struct {
	store BookStore
	sync  *MirrorSync
}

func NewBookService(store BookStore, sync *MirrorSync) *BookService {
	return &BookService{store: store, sync: sync}
}

func (s *BookService) AddBook(ctx context.Context, in BookInput) (Outcome, error) {
	book := in.entity()
	if book.Code == "" || book.Title == "" {
		return Outcome{}, errs.Newf(errs.KindInvalid, "books.add", "book code and title are required")
	}
	if err := s.store.Create(ctx, book); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        book.ID,
		MirrorErr: s.sync.write(ctx, mirror.CollectionBooks, book.ID, bookDocument(book)),
	}, nil
}

func (s *BookService) UpdateBook(ctx context.Context, in BookInput) (Outcome, error) {
	book, err := s.store.Update(ctx, in.entity())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        book.ID,
		MirrorErr: s.sync.upsert(ctx, mirror.CollectionBooks, book.ID, bookDocument(book)),
	}, nil
}

func (s *BookService) DeleteBook(ctx context.Context, code string) (Outcome, error) {
	id, err := s.store.Delete(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        id,
		MirrorErr: s.sync.remove(ctx, mirror.CollectionBooks, id),
	}, nil
}

func (s *BookService) GetBook(ctx context.Context, code string) (*entities.Book, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *BookService) ListBooks(ctx context.Context) ([]entities.Book, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return []entities.Book{}, err
	}
	return list, nil
}

// SearchBooks ANDs every populated filter field; an empty filter lists all
// books ordered by title.
func (s *BookService) SearchBooks(ctx context.Context, f books.Filter) ([]entities.Book, error) {
	list, err := s.store.Search(ctx, f)
	if err != nil {
		return []entities.Book{}, err
	}
	return list, nil
}
