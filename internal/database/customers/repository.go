// Package customers provides database operations for customer records.
//
//	var _ services.CustomerStore = (*Repository)(nil)
package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
)

// Filter narrows a customer search. Nil fields are ignored and every field
// matches as a substring.
type Filter struct {
	Name  *string
	Code  *string
	Phone *string
}

// Repository handles all customer database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new customers repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Create inserts a customer after checking that its code is free.
func (r *Repository) Create(ctx context.Context, customer *entities.Customer) error {
	const op = "customers.create"
	return r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Customer{}).Where("customer_code = ?", customer.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Newf(errs.KindConstraint, op, "customer code %q already exists", customer.Code)
		}
		return tx.Create(customer).Error
	})
}

// Update overwrites the editable fields of the customer identified by
// customer.Code and returns the stored row.
func (r *Repository) Update(ctx context.Context, customer *entities.Customer) (*entities.Customer, error) {
	const op = "customers.update"
	var updated entities.Customer
	err := r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		res := tx.Model(&entities.Customer{}).
			Where("customer_code = ?", customer.Code).
			Updates(map[string]any{
				"full_name":    customer.FullName,
				"address":      customer.Address,
				"phone_number": customer.PhoneNumber,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.Newf(errs.KindNotFound, op, "customer %q", customer.Code)
		}
		return tx.Where("customer_code = ?", customer.Code).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the customer with the given code and returns its id. Orders
// placed by the customer are kept.
func (r *Repository) Delete(ctx context.Context, code string) (uint, error) {
	const op = "customers.delete"
	var id uint
	err := r.db.Mutate(ctx, op, func(tx *gorm.DB) error {
		var customer entities.Customer
		if err := tx.Where("customer_code = ?", code).First(&customer).Error; err != nil {
			return err
		}
		id = customer.ID
		return tx.Delete(&entities.Customer{}, customer.ID).Error
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*entities.Customer, error) {
	var customer entities.Customer
	err := r.db.Read(ctx, "customers.get_by_code", func(db *gorm.DB) error {
		return db.Where("customer_code = ?", code).First(&customer).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Customer, error) {
	var customer entities.Customer
	err := r.db.Read(ctx, "customers.get_by_id", func(db *gorm.DB) error {
		return db.First(&customer, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns every customer ordered by id.
func (r *Repository) List(ctx context.Context) ([]entities.Customer, error) {
	customers := make([]entities.Customer, 0)
	err := r.db.Read(ctx, "customers.list", func(db *gorm.DB) error {
		return db.Order("customer_id ASC").Find(&customers).Error
	})
	return customers, err
}

// Search returns the customers matching every populated filter field, ordered
// by name.
func (r *Repository) Search(ctx context.Context, f Filter) ([]entities.Customer, error) {
	customers := make([]entities.Customer, 0)
	err := r.db.Read(ctx, "customers.search", func(db *gorm.DB) error {
		q := db.Model(&entities.Customer{})
		if f.Name != nil {
			q = q.Where("full_name LIKE ?"+database.LikeEscape, database.Contains(*f.Name))
		}
		if f.Code != nil {
			q = q.Where("customer_code LIKE ?"+database.LikeEscape, database.Contains(*f.Code))
		}
		if f.Phone != nil {
			q = q.Where("phone_number LIKE ?"+database.LikeEscape, database.Contains(*f.Phone))
		}
		return q.Order("full_name ASC").Find(&customers).Error
	})
	return customers, err
}
