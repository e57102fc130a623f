package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/services"
)

// CheckoutController exposes the basket workflows that create, fill and
// complete an order or import batch in one request.
type CheckoutController struct {
	service CheckoutService
}

func NewCheckoutController(service CheckoutService) *CheckoutController {
	return &CheckoutController{service: service}
}

// PlaceOrder handles POST /api/checkout
func (cc *CheckoutController) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	receipt, err := cc.service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, receipt.Outcome, receipt)
}

// ReceiveImport handles POST /api/imports/receive
func (cc *CheckoutController) ReceiveImport(c *gin.Context) {
	var req services.ReceiveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	receipt, err := cc.service.ReceiveImport(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, receipt.Outcome, receipt)
}
