package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/services"
)

type ReportsController struct {
	service ReportService
}

func NewReportsController(service ReportService) *ReportsController {
	return &ReportsController{service: service}
}

// respondRows writes a report result. Report failures still carry an empty
// row set, so clients always receive a rows field.
func respondRows[T any](c *gin.Context, rows []T, err error) {
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

// BestSellers handles GET /api/reports/best-sellers?year=&month=&limit=
// Zero or missing year and month select the current month.
func (rc *ReportsController) BestSellers(c *gin.Context) {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", 0)
	if !ok {
		return
	}
	if month < 0 || month > 12 {
		respondBadRequest(c, "month must be between 1 and 12")
		return
	}
	limit, ok := queryInt(c, "limit", services.DefaultBestSellerLimit)
	if !ok {
		return
	}

	rows, err := rc.service.BestSellers(c.Request.Context(), year, month, limit)
	respondRows(c, rows, err)
}

// InventoryByPublisher handles GET /api/reports/inventory-by-publisher
func (rc *ReportsController) InventoryByPublisher(c *gin.Context) {
	rows, err := rc.service.InventoryByPublisher(c.Request.Context())
	respondRows(c, rows, err)
}

// RegularCustomers handles GET /api/reports/regular-customers?min_orders=
func (rc *ReportsController) RegularCustomers(c *gin.Context) {
	minOrders, ok := queryInt(c, "min_orders", services.DefaultMinOrders)
	if !ok {
		return
	}
	rows, err := rc.service.RegularCustomers(c.Request.Context(), minOrders)
	respondRows(c, rows, err)
}

// RevenueByBook handles GET /api/reports/revenue-by-book
func (rc *ReportsController) RevenueByBook(c *gin.Context) {
	rows, err := rc.service.RevenueByBook(c.Request.Context())
	respondRows(c, rows, err)
}

// TopCustomers handles GET /api/reports/top-customers?limit=
func (rc *ReportsController) TopCustomers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultTopCustomerLimit)
	if !ok {
		return
	}
	rows, err := rc.service.TopCustomers(c.Request.Context(), limit)
	respondRows(c, rows, err)
}

// Dashboard handles GET /api/reports/dashboard
func (rc *ReportsController) Dashboard(c *gin.Context) {
	dashboard, err := rc.service.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, dashboard)
}

// MonthlyBestSellers handles GET /api/reports/monthly-best-sellers
func (rc *ReportsController) MonthlyBestSellers(c *gin.Context) {
	rows, err := rc.service.MonthlyBestSellers(c.Request.Context())
	respondRows(c, rows, err)
}
