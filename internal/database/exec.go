package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/errs"
)

// Exec runs one statement in its own transaction: committed when it succeeds,
// rolled back when it fails.
func (d *Database) Exec(ctx context.Context, op, statement string, args ...any) (int64, error) {
	var affected int64
	err := d.Mutate(ctx, op, func(tx *gorm.DB) error {
		res := tx.Exec(statement, args...)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Mutate runs fn as a single unit of work. Any error returned by fn rolls the
// transaction back and comes out classified.
func (d *Database) Mutate(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if err := d.live(op); err != nil {
		return err
	}
	return classify(op, d.DB.WithContext(ctx).Transaction(fn))
}

// Read runs fn against the pool without opening a transaction.
func (d *Database) Read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	if err := d.live(op); err != nil {
		return err
	}
	return classify(op, fn(d.DB.WithContext(ctx)))
}

// Query runs a read statement and returns the full result set, which may be
// empty but is never nil on success. The rows handle is closed on every path.
func Query[T any](ctx context.Context, d *Database, op, statement string, args ...any) (result []T, err error) {
	if err := d.live(op); err != nil {
		return nil, err
	}

	rows, err := d.DB.WithContext(ctx).Raw(statement, args...).Rows()
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			result, err = nil, classify(op, cerr)
		}
	}()

	result = make([]T, 0)
	for rows.Next() {
		var item T
		if err := d.DB.ScanRows(rows, &item); err != nil {
			return nil, classify(op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

// QueryOne is Query for statements that produce exactly one row.
func QueryOne[T any](ctx context.Context, d *Database, op, statement string, args ...any) (T, error) {
	var zero T
	rows, err := Query[T](ctx, d, op, statement, args...)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, errs.New(errs.KindNotFound, op, sql.ErrNoRows)
	}
	return rows[0], nil
}

func (d *Database) live(op string) error {
	if d == nil || d.DB == nil || d.closed.Load() {
		return errs.New(errs.KindConnection, op, ErrNotConnected)
	}
	return nil
}

// classify wraps err in an *errs.Error. Errors that already carry a kind are
// returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}

	kind := errs.KindExecution
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		kind = errs.KindConstraint
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = errs.KindNotFound
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		kind = errs.KindConnection
	}
	return errs.New(kind, op, err)
}

// isUniqueViolation catches driver messages that slipped past gorm's error
// translation.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
