package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/errs"
)

const codeAttempts = 3

// LineRequest asks for qty copies of a book. UnitPrice is only honoured by
// import receipts; orders always sell at the book's current price.
type LineRequest struct {
	BookCode  string          `json:"book_code" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PlaceOrderRequest struct {
	CustomerCode string        `json:"customer_code" binding:"required"`
	Lines        []LineRequest `json:"items"`
}

type ReceiveImportRequest struct {
	Supplier string        `json:"supplier"`
	Lines    []LineRequest `json:"items"`
}

// LineResult reports what happened to one requested line.
type LineResult struct {
	BookCode  string          `json:"book_code"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Added     bool            `json:"added"`
	Error     string          `json:"error,omitempty"`
}

// Receipt is the result of placing an order or receiving an import.
type Receipt struct {
	Outcome
	Code        string          `json:"code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []LineResult    `json:"items"`
}

// Checkout turns a basket into a completed order. Lines are added one at a
// time; a basket where no line could be added is rolled back by deleting the
// order.
type Checkout struct {
	orders    *OrderService
	imports   *ImportService
	books     BookStore
	customers CustomerStore
	now       func() time.Time
	suffix    func() int
}

func NewCheckout(orders *OrderService, imports *ImportService, books BookStore, customers CustomerStore) *Checkout {
	return &Checkout{
		orders:    orders,
		imports:   imports,
		books:     books,
		customers: customers,
		now:       time.Now,
		suffix:    func() int { return 100 + rand.IntN(900) },
	}
}

// documentCode builds codes like DH20240315093000123.
func (c *Checkout) documentCode(prefix string) string {
	return fmt.Sprintf("%s%s%d", prefix, c.now().Format("20060102150405"), c.suffix())
}

// PlaceOrder creates an order for the customer, adds every line whose book
// has enough stock at the book's price and finalizes the order.
func (c *Checkout) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (Receipt, error) {
	const op = "checkout.place_order"
	if len(req.Lines) == 0 {
		return Receipt{Lines: []LineResult{}}, errs.Newf(errs.KindEmptyOrder, op, "no items requested")
	}
	customer, err := c.customers.GetByCode(ctx, req.CustomerCode)
	if err != nil {
		return Receipt{Lines: []LineResult{}}, err
	}

	var (
		outcome Outcome
		code    string
	)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code = c.documentCode("DH")
		outcome, err = c.orders.CreateOrder(ctx, code, customer.ID, nil)
		if !errors.Is(err, errs.ErrConstraint) {
			break
		}
	}
	if err != nil {
		return Receipt{Lines: []LineResult{}}, err
	}

	receipt := Receipt{Outcome: Outcome{ID: outcome.ID}, Code: code, TotalAmount: decimal.Zero}
	mirrorErrs := []error{outcome.MirrorErr}
	added := 0
	for _, line := range req.Lines {
		result := LineResult{BookCode: line.BookCode, Quantity: line.Quantity}
		book, err := c.books.GetByCode(ctx, line.BookCode)
		switch {
		case err != nil:
			result.Error = err.Error()
		case book.QuantityInStock < line.Quantity:
			result.Error = fmt.Sprintf("insufficient stock: %d available", book.QuantityInStock)
		default:
			result.UnitPrice = book.Price
			lineOutcome, err := c.orders.AddOrderLine(ctx, outcome.ID, book.ID, line.Quantity, book.Price)
			if err != nil {
				result.Error = err.Error()
				break
			}
			mirrorErrs = append(mirrorErrs, lineOutcome.MirrorErr)
			result.Subtotal = book.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			result.Added = true
			added++
		}
		receipt.Lines = append(receipt.Lines, result)
	}

	if added == 0 {
		if _, err := c.orders.DeleteOrder(ctx, outcome.ID); err != nil {
			return receipt, fmt.Errorf("failed to discard empty order %s: %w", code, err)
		}
		return receipt, errs.Newf(errs.KindEmptyOrder, op, "none of the requested items could be added")
	}

	finalized, err := c.orders.FinalizeOrder(ctx, outcome.ID)
	if err != nil {
		return receipt, err
	}
	receipt.TotalAmount = finalized.TotalAmount
	receipt.MirrorErr = errors.Join(append(mirrorErrs, finalized.MirrorErr)...)
	return receipt, nil
}

// ReceiveImport records a delivery from a supplier. Lines without a unit
// price are costed at the book's current price.
func (c *Checkout) ReceiveImport(ctx context.Context, req ReceiveImportRequest) (Receipt, error) {
	const op = "checkout.receive_import"
	if len(req.Lines) == 0 {
		return Receipt{Lines: []LineResult{}}, errs.Newf(errs.KindEmptyOrder, op, "no items received")
	}

	var (
		outcome Outcome
		code    string
		err     error
	)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code = c.documentCode("PN")
		outcome, err = c.imports.CreateImport(ctx, code, nil, req.Supplier)
		if !errors.Is(err, errs.ErrConstraint) {
			break
		}
	}
	if err != nil {
		return Receipt{Lines: []LineResult{}}, err
	}

	receipt := Receipt{Outcome: Outcome{ID: outcome.ID}, Code: code, TotalAmount: decimal.Zero}
	mirrorErrs := []error{outcome.MirrorErr}
	added := 0
	for _, line := range req.Lines {
		result := LineResult{BookCode: line.BookCode, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
		book, err := c.books.GetByCode(ctx, line.BookCode)
		if err != nil {
			result.Error = err.Error()
			receipt.Lines = append(receipt.Lines, result)
			continue
		}
		if result.UnitPrice.IsZero() {
			result.UnitPrice = book.Price
		}
		lineOutcome, err := c.imports.AddImportLine(ctx, outcome.ID, book.ID, line.Quantity, result.UnitPrice)
		if err != nil {
			result.Error = err.Error()
			receipt.Lines = append(receipt.Lines, result)
			continue
		}
		mirrorErrs = append(mirrorErrs, lineOutcome.MirrorErr)
		result.Subtotal = result.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		result.Added = true
		receipt.TotalAmount = receipt.TotalAmount.Add(result.Subtotal)
		receipt.Lines = append(receipt.Lines, result)
		added++
	}

	if added == 0 {
		if _, err := c.imports.DeleteImport(ctx, outcome.ID); err != nil {
			return receipt, fmt.Errorf("failed to discard empty import %s: %w", code, err)
		}
		return receipt, errs.Newf(errs.KindEmptyOrder, op, "none of the received items could be recorded")
	}
	receipt.MirrorErr = errors.Join(mirrorErrs...)
	return receipt, nil
}
