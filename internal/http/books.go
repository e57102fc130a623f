package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/services"
)

type BooksController struct {
	service BookService
}

func NewBooksController(service BookService) *BooksController {
	return &BooksController{
		service: service,
	}
}

// Search handles GET /api/books. Every query parameter is an optional filter.
func (controller *BooksController) Search(c *gin.Context) {
	filter := books.Filter{
		Title:     optionalString(c, "title"),
		Code:      optionalString(c, "code"),
		Author:    optionalString(c, "author"),
		Publisher: optionalString(c, "publisher"),
	}
	var ok bool
	if filter.Year, ok = optionalInt(c, "year"); !ok {
		return
	}
	if filter.MinPrice, ok = optionalDecimal(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = optionalDecimal(c, "max_price"); !ok {
		return
	}

	result, err := controller.service.SearchBooks(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": result, "count": len(result)})
}

// Get handles GET /api/books/:code
func (controller *BooksController) Get(c *gin.Context) {
	book, err := controller.service.GetBook(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// Add handles POST /api/books
func (controller *BooksController) Add(c *gin.Context) {
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := controller.service.AddBook(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

// Update handles PUT /api/books/:code. The path code wins over the body.
func (controller *BooksController) Update(c *gin.Context) {
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	in.Code = c.Param("code")

	outcome, err := controller.service.UpdateBook(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}

// Delete handles DELETE /api/books/:code
func (controller *BooksController) Delete(c *gin.Context) {
	outcome, err := controller.service.DeleteBook(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}
