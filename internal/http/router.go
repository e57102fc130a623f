package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Mirror, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books)
		api.GET("/books", booksController.Search)
		api.GET("/books/:code", booksController.Get)
		api.POST("/books", booksController.Add)
		api.PUT("/books/:code", booksController.Update)
		api.DELETE("/books/:code", booksController.Delete)
	}

	if cfg.Customers != nil {
		customersController := NewCustomersController(cfg.Customers)
		api.GET("/customers", customersController.Search)
		api.GET("/customers/:code", customersController.Get)
		api.POST("/customers", customersController.Add)
		api.PUT("/customers/:code", customersController.Update)
		api.DELETE("/customers/:code", customersController.Delete)
	}

	if cfg.Orders != nil {
		ordersController := NewOrdersController(cfg.Orders)
		api.GET("/orders", ordersController.List)
		api.GET("/orders/stats", ordersController.Stats)
		api.GET("/orders/:id", ordersController.Get)
		api.POST("/orders", ordersController.Create)
		api.POST("/orders/:id/items", ordersController.AddLine)
		api.POST("/orders/:id/finalize", ordersController.Finalize)
		api.DELETE("/orders/:id", ordersController.Delete)
	}

	if cfg.Imports != nil {
		importsController := NewImportsController(cfg.Imports)
		api.GET("/imports", importsController.List)
		api.GET("/imports/:id", importsController.Get)
		api.POST("/imports", importsController.Create)
		api.POST("/imports/:id/items", importsController.AddLine)
		api.DELETE("/imports/:id", importsController.Delete)
	}

	if cfg.Checkout != nil {
		checkoutController := NewCheckoutController(cfg.Checkout)
		api.POST("/checkout", checkoutController.PlaceOrder)
		api.POST("/imports/receive", checkoutController.ReceiveImport)
	}

	if cfg.Reports != nil {
		reportsController := NewReportsController(cfg.Reports)
		reportsGroup := api.Group("/reports")
		reportsGroup.GET("/best-sellers", reportsController.BestSellers)
		reportsGroup.GET("/inventory-by-publisher", reportsController.InventoryByPublisher)
		reportsGroup.GET("/regular-customers", reportsController.RegularCustomers)
		reportsGroup.GET("/revenue-by-book", reportsController.RevenueByBook)
		reportsGroup.GET("/top-customers", reportsController.TopCustomers)
		reportsGroup.GET("/dashboard", reportsController.Dashboard)
		reportsGroup.GET("/monthly-best-sellers", reportsController.MonthlyBestSellers)
	}

	// Mirror and task management endpoints
	if cfg.Reconciler != nil || cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.Reconciler)
		api.POST("/mirror/resync", tasksController.Resync)
		if cfg.TaskQueue != nil {
			api.GET("/tasks/:id", tasksController.GetTaskStatus)
		}
	}

	return router
}
