package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailhub/internal/interfaces/http/handler"
)

type Handlers struct {
	Products  *handler.ProductHandler
	Orders    *handler.OrderHandler
	Customers *handler.CustomerHandler
	Sales     *handler.SaleHandler
	Metrics   http.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/healthz", handler.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := r.Group("/api")
	{
		products := api.Group("/products")
		products.POST("", h.Products.Create)
		products.GET("", h.Products.List)
		products.GET("/search", h.Products.Search)
		products.GET("/:code", h.Products.Get)
		products.DELETE("/:code", h.Products.Delete)
		products.POST("/:code/stock", h.Products.IncreaseStock)
		products.DELETE("/:code/stock", h.Products.DecreaseStock)
		products.POST("/:code/allocate", h.Products.Allocate)
		products.POST("/:code/direct-sale", h.Products.DirectSale)

		orders := api.Group("/orders")
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("", h.Orders.List)
		orders.GET("/:id", h.Orders.Get)
		orders.POST("/:id/fulfill", h.Orders.Fulfill)
		orders.POST("/:id/cancel", h.Orders.Cancel)
		orders.POST("/:id/deliver", h.Orders.Deliver)

		customers := api.Group("/customers")
		customers.POST("", h.Customers.Register)
		customers.GET("", h.Customers.List)
		customers.GET("/:id", h.Customers.Get)
		customers.GET("/:id/orders", h.Customers.Orders)
		customers.GET("/:id/sales", h.Customers.Sales)

		api.GET("/sales", h.Sales.List)
	}
}
