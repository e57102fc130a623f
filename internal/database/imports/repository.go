// Package imports provides database operations for stock import batches.
// Unlike orders, an import has no finalize step: its total grows with every
// line added.
//
//	var _ services.ImportStore = (*Repository)(nil)
package imports

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

// Repository handles all import database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new imports repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Create inserts an import batch with a zero total. The import code must be
// unused.
func (r *Repository) Create(ctx context.Context, batch *entities.ImportBatch) error {
	const op = "imports.create"
	batch.TotalAmount = decimal.Zero
	batch.ImportDate = batch.ImportDate.UTC()
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.ImportBatch{}).Where("import_code = ?", batch.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Newf(errs.KindConstraint, op, "import code %q already exists", batch.Code)
		}
		return tx.Omit("Details").Create(batch).Error
	})
}

// AddLine inserts a line item, adds its quantity to the book's stock and its
// subtotal to the batch's running total, all in one transaction.
func (r *Repository) AddLine(ctx context.Context, line *entities.ImportDetail) error {
	const op = "imports.add_line"
	if line.Quantity <= 0 {
		return errs.Newf(errs.KindInvalid, op, "quantity must be positive, got %d", line.Quantity)
	}
	line.Subtotal = entities.LineSubtotal(line.Quantity, line.UnitPrice)

	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var batch entities.ImportBatch
		if err := tx.First(&batch, line.ImportID).Error; err != nil {
			return err
		}
		if err := tx.Create(line).Error; err != nil {
			return err
		}
		res := tx.Model(&entities.Book{}).
			Where("book_id = ?", line.BookID).
			UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", line.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "book %d", line.BookID)
		}
		return tx.Model(&entities.ImportBatch{}).
			Where("import_id = ?", line.ImportID).
			UpdateColumn("total_amount", gorm.Expr("total_amount + ?", line.Subtotal)).Error
	})
}

// Get retrieves an import batch with its line items.
func (r *Repository) Get(ctx context.Context, importID uint) (*entities.ImportBatch, error) {
	var batch entities.ImportBatch
	err := r.db.Read(ctx, "imports.get", func(db *gorm.DB) error {
		return db.Preload("Details").First(&batch, importID).Error
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// IDs returns every import id, oldest first.
func (r *Repository) IDs(ctx context.Context) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.Read(ctx, "imports.ids", func(db *gorm.DB) error {
		return db.Model(&entities.ImportBatch{}).Order("import_id ASC").Pluck("import_id", &ids).Error
	})
	return ids, err
}

// List returns every import batch, newest first.
func (r *Repository) List(ctx context.Context) ([]entities.ImportBatch, error) {
	batches := make([]entities.ImportBatch, 0)
	err := r.db.Read(ctx, "imports.list", func(db *gorm.DB) error {
		return db.Order("import_date DESC, import_id DESC").Find(&batches).Error
	})
	return batches, err
}

// Delete removes a batch and its lines and takes their quantities back out of
// stock. It is the compensation step for an import whose lines all failed.
func (r *Repository) Delete(ctx context.Context, importID uint) error {
	const op = "imports.delete"
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var details []entities.ImportDetail
		if err := tx.Where("import_id = ?", importID).Find(&details).Error; err != nil {
			return err
		}
		for _, d := range details {
			err := tx.Model(&entities.Book{}).
				Where("book_id = ?", d.BookID).
				UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", d.Quantity)).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("import_id = ?", importID).Delete(&entities.ImportDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.ImportBatch{}, importID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "import %d", importID)
		}
		return nil
	})
}
