package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/services"
)

type CustomersController struct {
	service CustomerService
}

func NewCustomersController(service CustomerService) *CustomersController {
	return &CustomersController{service: service}
}

// Search handles GET /api/customers?name=&code=&phone=
func (controller *CustomersController) Search(c *gin.Context) {
	filter := customers.Filter{
		Name:  optionalString(c, "name"),
		Code:  optionalString(c, "code"),
		Phone: optionalString(c, "phone"),
	}

	result, err := controller.service.SearchCustomers(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"customers": result, "count": len(result)})
}

func (controller *CustomersController) Get(c *gin.Context) {
	customer, err := controller.service.GetCustomer(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, customer)
}

func (controller *CustomersController) Add(c *gin.Context) {
	var in services.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := controller.service.AddCustomer(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, outcome, nil)
}

func (controller *CustomersController) Update(c *gin.Context) {
	var in services.CustomerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	in.Code = c.Param("code")

	outcome, err := controller.service.UpdateCustomer(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}

func (controller *CustomersController) Delete(c *gin.Context) {
	outcome, err := controller.service.DeleteCustomer(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondWritten(c, outcome, nil)
}
