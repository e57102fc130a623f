package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/database/reports"
)

const (
	DefaultBestSellerLimit  = 10
	DefaultTopCustomerLimit = 10
	DefaultMinOrders        = 2
)

// Dashboard summarizes the store at a glance.
type Dashboard struct {
	Books     int64           `json:"books"`
	Customers int64           `json:"customers"`
	Orders    int64           `json:"orders"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// MonthlyBestSeller is the top book of one month with completed orders.
// Found is false when the month's ranking came back empty or failed.
type MonthlyBestSeller struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	BookCode  string `json:"book_code,omitempty"`
	Title     string `json:"title,omitempty"`
	TotalSold int64  `json:"total_sold"`
	Found     bool   `json:"found"`
}

// ReportService applies report defaults and guarantees a non-nil result even
// when the query fails.
// Months are calendar months in loc, the shop's local zone.
type ReportService struct {
	store ReportStore
	now   func() time.Time
	loc   *time.Location
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now, loc: time.Local}
}

// monthBounds returns the first instant of the month and of the next one.
func (s *ReportService) monthBounds(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 1, 0)
}

// BestSellers ranks books sold in the given month. A zero year or month
// means the current one. When the period query fails the all-time ranking is
// returned instead.
func (s *ReportService) BestSellers(ctx context.Context, year, month, limit int) ([]reports.BestSeller, error) {
	now := s.now().In(s.loc)
	if year <= 0 {
		year = now.Year()
	}
	if month <= 0 || month > 12 {
		month = int(now.Month())
	}
	if limit <= 0 {
		limit = DefaultBestSellerLimit
	}
	from, to := s.monthBounds(year, month)

	rows, err := s.store.BestSellers(ctx, from, to, limit)
	if err == nil {
		return rows, nil
	}
	log.Printf("Best sellers for %04d-%02d failed, falling back to all time: %v", year, month, err)
	rows, err = s.store.BestSellers(ctx, time.Time{}, time.Time{}, limit)
	if err != nil {
		return []reports.BestSeller{}, err
	}
	return rows, nil
}

func (s *ReportService) InventoryByPublisher(ctx context.Context) ([]reports.PublisherInventory, error) {
	rows, err := s.store.InventoryByPublisher(ctx)
	if err != nil {
		return []reports.PublisherInventory{}, err
	}
	return rows, nil
}

// RegularCustomers lists customers with at least minOrders completed orders.
// A non-positive minimum means DefaultMinOrders.
func (s *ReportService) RegularCustomers(ctx context.Context, minOrders int) ([]reports.RegularCustomer, error) {
	if minOrders <= 0 {
		minOrders = DefaultMinOrders
	}
	rows, err := s.store.RegularCustomers(ctx, minOrders)
	if err != nil {
		return []reports.RegularCustomer{}, err
	}
	return rows, nil
}

func (s *ReportService) RevenueByBook(ctx context.Context) ([]reports.BookRevenue, error) {
	rows, err := s.store.RevenueByBook(ctx)
	if err != nil {
		return []reports.BookRevenue{}, err
	}
	return rows, nil
}

func (s *ReportService) TopCustomers(ctx context.Context, limit int) ([]reports.CustomerPurchases, error) {
	if limit <= 0 {
		limit = DefaultTopCustomerLimit
	}
	rows, err := s.store.TopCustomers(ctx, limit)
	if err != nil {
		return []reports.CustomerPurchases{}, err
	}
	return rows, nil
}

// Dashboard returns entity counts and the revenue of all completed sales.
func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return Dashboard{Revenue: decimal.Zero}, err
	}
	revenue, err := s.store.RevenueByBook(ctx)
	if err != nil {
		return Dashboard{Revenue: decimal.Zero}, err
	}
	d := Dashboard{Books: counts.Books, Customers: counts.Customers, Orders: counts.Orders, Revenue: decimal.Zero}
	for _, r := range revenue {
		d.Revenue = d.Revenue.Add(r.TotalRevenue)
	}
	return d, nil
}

// MonthlyBestSellers returns the top seller of every month that has completed
// orders, newest year first and months in calendar order within a year.
func (s *ReportService) MonthlyBestSellers(ctx context.Context) ([]MonthlyBestSeller, error) {
	dates, err := s.store.CompletedOrderDates(ctx)
	if err != nil {
		return []MonthlyBestSeller{}, err
	}

	type yearMonth struct{ year, month int }
	seen := make(map[yearMonth]bool)
	var months []yearMonth
	for _, d := range dates {
		d = d.In(s.loc)
		ym := yearMonth{d.Year(), int(d.Month())}
		if !seen[ym] {
			seen[ym] = true
			months = append(months, ym)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year > months[j].year
		}
		return months[i].month < months[j].month
	})

	out := make([]MonthlyBestSeller, 0, len(months))
	for _, ym := range months {
		row := MonthlyBestSeller{Year: ym.year, Month: ym.month}
		from, to := s.monthBounds(ym.year, ym.month)
		top, err := s.store.BestSellers(ctx, from, to, 1)
		switch {
		case err != nil:
			log.Printf("Best seller for %04d-%02d failed: %v", ym.year, ym.month, err)
		case len(top) > 0:
			row.BookCode = top[0].BookCode
			row.Title = top[0].Title
			row.TotalSold = top[0].TotalSold
			row.Found = true
		}
		out = append(out, row)
	}
	return out, nil
}
