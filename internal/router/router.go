package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "invoicevault/docs"
	"invoicevault/internal/handler"
	"invoicevault/internal/middleware"
)

// Handlers groups the handlers mounted by Setup.
type Handlers struct {
	Health *handler.HealthHandler
	Parse  *handler.ParseHandler
	Ingest *handler.IngestHandler
	Orders *handler.OrderHandler
}

// Setup configures the Gin engine with all routes and middleware. A nil
// Orders handler leaves the order routes unmounted.
func Setup(h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	parse := v1.Group("/parse")
	parse.POST("/summary", h.Parse.ParseSummary)
	parse.POST("/detail", h.Parse.ParseDetail)

	v1.POST("/ingest", h.Ingest.Ingest)

	if h.Orders != nil {
		orders := v1.Group("/orders")
		orders.GET("", h.Orders.List)
		orders.GET("/:category/:id", h.Orders.GetByID)
	}

	return r
}
