package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ImportsController struct {
	service ImportService
}

func NewImportsController(service ImportService) *ImportsController {
	return &ImportsController{service: service}
}

type CreateImportRequest struct {
	ImportCode string     `json:"import_code" binding:"required"`
	ImportDate *time.Time `json:"import_date"`
	Supplier   string     `json:"supplier"`
}

// List handles GET /api/imports
func (ic *ImportsController) List(c *gin.Context) {
	list, err := ic.service.ListImports(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"imports": list, "count": len(list)})
}

// Get handles GET /api/imports/:id
func (ic *ImportsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := ic.service.GetImport(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, batch)
}

// Create handles POST /api/imports
func (ic *ImportsController) Create(c *gin.Context) {
	var req CreateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := ic.service.CreateImport(c.Request.Context(), req.ImportCode, req.ImportDate, req.Supplier)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

// AddLine handles POST /api/imports/:id/items
func (ic *ImportsController) AddLine(c *gin.Context) {
	importID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := ic.service.AddImportLine(c.Request.Context(), importID, req.BookID, req.Quantity, req.UnitPrice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

// Delete handles DELETE /api/imports/:id
func (ic *ImportsController) Delete(c *gin.Context) {
	importID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	outcome, err := ic.service.DeleteImport(c.Request.Context(), importID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}
