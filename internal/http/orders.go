package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrdersController struct {
	service OrderService
}

func NewOrdersController(service OrderService) *OrdersController {
	return &OrdersController{service: service}
}

// CreateOrderRequest opens a Pending order. A missing date means now.
type CreateOrderRequest struct {
	OrderCode  string     `json:"order_code" binding:"required"`
	CustomerID uint       `json:"customer_id" binding:"required"`
	OrderDate  *time.Time `json:"order_date"`
}

// LineItemRequest adds a line to an order or an import batch.
type LineItemRequest struct {
	BookID    uint            `json:"book_id" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// List handles GET /api/orders
func (oc *OrdersController) List(c *gin.Context) {
	list, err := oc.service.ListOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// Get handles GET /api/orders/:id
func (oc *OrdersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := oc.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, order)
}

// Create handles POST /api/orders
func (oc *OrdersController) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := oc.service.CreateOrder(c.Request.Context(), req.OrderCode, req.CustomerID, req.OrderDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

// AddLine handles POST /api/orders/:id/items
func (oc *OrdersController) AddLine(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := oc.service.AddOrderLine(c.Request.Context(), orderID, req.BookID, req.Quantity, req.UnitPrice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

// Finalize handles POST /api/orders/:id/finalize
func (oc *OrdersController) Finalize(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := oc.service.FinalizeOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, result.Outcome, gin.H{
		"total_amount":      result.TotalAmount,
		"already_completed": result.AlreadyCompleted,
	})
}

// Stats handles GET /api/orders/stats?start=YYYY-MM-DD&end=YYYY-MM-DD
func (oc *OrdersController) Stats(c *gin.Context) {
	start, ok := queryDate(c, "start")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end")
	if !ok {
		return
	}

	stats, err := oc.service.OrderStats(c.Request.Context(), start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

// Delete handles DELETE /api/orders/:id
func (oc *OrdersController) Delete(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	outcome, err := oc.service.DeleteOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}
