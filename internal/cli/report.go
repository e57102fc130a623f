package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookstore/internal/database/orders"
	"github.com/mrlokans/bookstore/internal/database/reports"
	"github.com/mrlokans/bookstore/internal/entrypoint"
	"github.com/mrlokans/bookstore/internal/services"
)

const dateLayout = "2006-01-02"

// ReportCommand renders one of the store reports.
type ReportCommand struct {
	Name      string
	Year      int
	Month     int
	Limit     int
	MinOrders int
	Start     string
	End       string
	Format    string
}

type reportFunc func(ctx context.Context, cmd *ReportCommand, app *entrypoint.App, w io.Writer) error

var reportsByName = map[string]reportFunc{
	"best-sellers":           runBestSellers,
	"inventory-by-publisher": runInventoryByPublisher,
	"regular-customers":      runRegularCustomers,
	"revenue-by-book":        runRevenueByBook,
	"top-customers":          runTopCustomers,
	"dashboard":              runDashboard,
	"monthly-best-sellers":   runMonthlyBestSellers,
	"order-stats":            runOrderStats,
}

// ReportNames lists the available reports in alphabetical order.
func ReportNames() []string {
	names := make([]string, 0, len(reportsByName))
	for name := range reportsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	rc := &ReportCommand{}

	cmd := &cobra.Command{
		Use:   "report <name>",
		Short: "Render a report as a table",
		Long: fmt.Sprintf(`Render a report from the relational store.

Available reports: %v

Amounts are shown in whole VNĐ. Use --format json for raw rows.`, ReportNames()),
		Args:      cobra.ExactArgs(1),
		ValidArgs: ReportNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.Name = args[0]
			rc.Format = rootOpts.Format
			return withApp(cmd.Context(), rootOpts, func(app *entrypoint.App) error {
				return rc.Run(cmd.Context(), app, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().IntVar(&rc.Year, "year", 0, "best-sellers: year (default current)")
	cmd.Flags().IntVar(&rc.Month, "month", 0, "best-sellers: month 1-12 (default current)")
	cmd.Flags().IntVar(&rc.Limit, "limit", 0, "best-sellers, top-customers: maximum rows (default 10)")
	cmd.Flags().IntVar(&rc.MinOrders, "min-orders", services.DefaultMinOrders, "regular-customers: minimum completed orders")
	cmd.Flags().StringVar(&rc.Start, "start", "", "order-stats: first day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&rc.End, "end", "", "order-stats: last day, YYYY-MM-DD (default today)")

	return cmd
}

// Run renders the named report to w.
func (rc *ReportCommand) Run(ctx context.Context, app *entrypoint.App, w io.Writer) error {
	run, ok := reportsByName[rc.Name]
	if !ok {
		return fmt.Errorf("unknown report %q, available: %v", rc.Name, ReportNames())
	}
	if rc.Month < 0 || rc.Month > 12 {
		return fmt.Errorf("invalid month %d", rc.Month)
	}
	return run(ctx, rc, app, w)
}

func (rc *ReportCommand) json() bool { return rc.Format == "json" }

func runBestSellers(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.BestSellers(ctx, rc.Year, rc.Month, rc.Limit)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderBestSellers(w, rows)
}

func runInventoryByPublisher(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.InventoryByPublisher(ctx)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderInventory(w, rows)
}

func runRegularCustomers(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.RegularCustomers(ctx, rc.MinOrders)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderRegularCustomers(w, rows)
}

func runRevenueByBook(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.RevenueByBook(ctx)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderRevenueByBook(w, rows)
}

func runTopCustomers(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.TopCustomers(ctx, rc.Limit)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderTopCustomers(w, rows)
}

func runDashboard(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	d, err := app.Reports.Dashboard(ctx)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, d)
	}
	return renderDashboard(w, d)
}

func runMonthlyBestSellers(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	rows, err := app.Reports.MonthlyBestSellers(ctx)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, rows)
	}
	return renderMonthlyBestSellers(w, rows)
}

func runOrderStats(ctx context.Context, rc *ReportCommand, app *entrypoint.App, w io.Writer) error {
	today := time.Now().Format(dateLayout)
	start, err := parseDay(rc.Start, today)
	if err != nil {
		return err
	}
	end, err := parseDay(rc.End, today)
	if err != nil {
		return err
	}

	stats, err := app.Orders.OrderStats(ctx, start, end)
	if err != nil {
		return err
	}
	if rc.json() {
		return writeJSON(w, stats)
	}
	return renderOrderStats(w, start, end, stats)
}

func parseDay(value, def string) (time.Time, error) {
	if value == "" {
		value = def
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// --- Renderers ---

func renderBestSellers(w io.Writer, rows []reports.BestSeller) error {
	t := newTable(
		column{"#", alignRight},
		column{"Code", alignLeft},
		column{"Title", alignLeft},
		column{"Author", alignLeft},
		column{"Sold", alignRight},
		column{"Revenue", alignRight},
	)
	for i, r := range rows {
		t.add(strconv.Itoa(i+1), r.BookCode, r.Title, r.Author, formatCount(r.TotalSold), formatVND(r.TotalRevenue))
	}
	return t.render(w)
}

func renderInventory(w io.Writer, rows []reports.PublisherInventory) error {
	t := newTable(
		column{"Publisher", alignLeft},
		column{"Titles", alignRight},
		column{"Stock", alignRight},
		column{"Value", alignRight},
	)
	for _, r := range rows {
		t.add(r.Publisher, formatCount(r.BookCount), formatCount(r.TotalStock), formatVND(r.TotalValue))
	}
	return t.render(w)
}

func renderRegularCustomers(w io.Writer, rows []reports.RegularCustomer) error {
	t := newTable(
		column{"Code", alignLeft},
		column{"Name", alignLeft},
		column{"Phone", alignLeft},
		column{"Orders", alignRight},
		column{"Spent", alignRight},
	)
	for _, r := range rows {
		t.add(r.CustomerCode, r.FullName, r.PhoneNumber, formatCount(r.OrderCount), formatVND(r.TotalSpent))
	}
	return t.render(w)
}

func renderRevenueByBook(w io.Writer, rows []reports.BookRevenue) error {
	t := newTable(
		column{"Code", alignLeft},
		column{"Title", alignLeft},
		column{"Orders", alignRight},
		column{"Sold", alignRight},
		column{"Revenue", alignRight},
	)
	for _, r := range rows {
		t.add(r.BookCode, r.Title, formatCount(r.OrderCount), formatCount(r.TotalSold), formatVND(r.TotalRevenue))
	}
	return t.render(w)
}

func renderTopCustomers(w io.Writer, rows []reports.CustomerPurchases) error {
	t := newTable(
		column{"#", alignRight},
		column{"Code", alignLeft},
		column{"Name", alignLeft},
		column{"Books", alignRight},
		column{"Orders", alignRight},
		column{"Spent", alignRight},
	)
	for i, r := range rows {
		t.add(strconv.Itoa(i+1), r.CustomerCode, r.FullName, formatCount(r.TotalBooks), formatCount(r.OrderCount), formatVND(r.TotalSpent))
	}
	return t.render(w)
}

func renderDashboard(w io.Writer, d services.Dashboard) error {
	t := newTable(column{"Metric", alignLeft}, column{"Value", alignRight})
	t.add("Books", formatCount(d.Books))
	t.add("Customers", formatCount(d.Customers))
	t.add("Orders", formatCount(d.Orders))
	t.add("Revenue", formatVND(d.Revenue))
	return t.render(w)
}

func renderMonthlyBestSellers(w io.Writer, rows []services.MonthlyBestSeller) error {
	t := newTable(
		column{"Month", alignLeft},
		column{"Code", alignLeft},
		column{"Title", alignLeft},
		column{"Sold", alignRight},
	)
	for _, r := range rows {
		month := fmt.Sprintf("%04d-%02d", r.Year, r.Month)
		if !r.Found {
			t.add(month, "-", "-", "0")
			continue
		}
		t.add(month, r.BookCode, r.Title, formatCount(r.TotalSold))
	}
	return t.render(w)
}

func renderOrderStats(w io.Writer, start, end time.Time, s orders.Stats) error {
	t := newTable(column{"Metric", alignLeft}, column{"Value", alignRight})
	t.add("From", start.Format(dateLayout))
	t.add("To", end.Format(dateLayout))
	t.add("Completed orders", formatCount(s.OrderCount))
	t.add("Revenue", formatVND(s.Revenue))
	return t.render(w)
}
