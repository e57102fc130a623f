package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// FinalizeResult is the outcome of completing an order.
type FinalizeResult struct {
	Outcome
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AlreadyCompleted bool            `json:"already_completed"`
}

// OrderService drives the Pending → Completed order workflow.
type OrderService struct {
	store OrderStore
	sync  *MirrorSync
	now   func() time.Time
}

func NewOrderService(store OrderStore, sync *MirrorSync) *OrderService {
	return &OrderService{store: store, sync: sync, now: time.Now}
}

// CreateOrder opens a Pending order with a zero total. A nil date means now.
func (s *OrderService) CreateOrder(ctx context.Context, code string, customerID uint, date *time.Time) (Outcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Outcome{}, errs.Newf(errs.KindInvalid, "orders.create", "order code is required")
	}
	order := &entities.Order{Code: code, CustomerID: customerID, OrderDate: s.now()}
	if date != nil {
		order.OrderDate = *date
	}
	if err := s.store.Create(ctx, order); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        order.ID,
		MirrorErr: s.sync.write(ctx, mirror.CollectionOrders, order.ID, orderDocument(order)),
	}, nil
}

// AddOrderLine records qty copies of a book at unitPrice and takes them out
// of stock. Stock is not checked here; PlaceOrder does that.
func (s *OrderService) AddOrderLine(ctx context.Context, orderID, bookID uint, qty int, unitPrice decimal.Decimal) (Outcome, error) {
	line := &entities.OrderDetail{OrderID: orderID, BookID: bookID, Quantity: qty, UnitPrice: unitPrice}
	if err := s.store.AddLine(ctx, line); err != nil {
		return Outcome{}, err
	}
	return Outcome{ID: line.ID, MirrorErr: s.mirrorOrder(ctx, orderID, nil)}, nil
}

// FinalizeOrder totals the lines and marks the order Completed. Finalizing a
// completed order again succeeds without changing it.
func (s *OrderService) FinalizeOrder(ctx context.Context, orderID uint) (FinalizeResult, error) {
	order, already, err := s.store.Finalize(ctx, orderID)
	if err != nil {
		return FinalizeResult{}, err
	}
	result := FinalizeResult{
		Outcome:          Outcome{ID: order.ID},
		TotalAmount:      order.TotalAmount,
		AlreadyCompleted: already,
	}
	if !already {
		result.MirrorErr = s.mirrorOrder(ctx, orderID, mirror.Document{"completed_at": s.now().UTC()})
	}
	return result, nil
}

// mirrorOrder re-reads the order and upserts it together with extra fields.
func (s *OrderService) mirrorOrder(ctx context.Context, orderID uint, extra mirror.Document) error {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return s.sync.track(ctx, mirror.CollectionOrders, orderID, err)
	}
	doc := orderDocument(order)
	for k, v := range extra {
		doc[k] = v
	}
	return s.sync.upsert(ctx, mirror.CollectionOrders, orderID, doc)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*entities.Order, error) {
	return s.store.Get(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]orders.Summary, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return []orders.Summary{}, err
	}
	return list, nil
}

// OrderStats counts completed orders and their revenue between the start of
// start's day and the end of end's day.
func (s *OrderService) OrderStats(ctx context.Context, start, end time.Time) (orders.Stats, error) {
	stats, err := s.store.Stats(ctx, start, end)
	if err != nil {
		return orders.Stats{Revenue: decimal.Zero}, err
	}
	return stats, nil
}

// DeleteOrder removes an order and its lines, returning their stock.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) (Outcome, error) {
	if err := s.store.Delete(ctx, orderID); err != nil {
		return Outcome{}, err
	}
	return Outcome{ID: orderID, MirrorErr: s.sync.remove(ctx, mirror.CollectionOrders, orderID)}, nil
}
