package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appcustomer "retailhub/internal/application/customer"
	appinventory "retailhub/internal/application/inventory"
	apporder "retailhub/internal/application/order"
	"retailhub/internal/domain/inventory"
)

type ProductHandler struct {
	catalog   *appinventory.Catalog
	orders    *apporder.Manager
	customers *appcustomer.Directory
}

func NewProductHandler(catalog *appinventory.Catalog, orders *apporder.Manager, customers *appcustomer.Directory) *ProductHandler {
	return &ProductHandler{catalog: catalog, orders: orders, customers: customers}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var cmd appinventory.AddProductCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.catalog.Add(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *ProductHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}

// Search matches an exact code or a case-insensitive name fragment.
func (h *ProductHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Search(c.Query("q")))
}

func (h *ProductHandler) Get(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	v, err := h.catalog.Get(code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *ProductHandler) IncreaseStock(c *gin.Context) {
	h.adjust(c, h.catalog.IncreaseStock)
}

func (h *ProductHandler) DecreaseStock(c *gin.Context) {
	h.adjust(c, h.catalog.DecreaseStock)
}

func (h *ProductHandler) adjust(c *gin.Context, fn func(ctx context.Context, code, qty int) (inventory.View, error)) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := fn(c.Request.Context(), code, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), code); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Allocate runs the backorder sweep for one product.
func (h *ProductHandler) Allocate(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	n, err := h.orders.AllocateBackorderedItems(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "allocated": n})
}

type directSaleRequest struct {
	CustomerID int `json:"customer_id"`
	Quantity   int `json:"quantity" binding:"required"`
}

// DirectSale sells available stock immediately. Without a customer id the
// walk-in customer is used.
func (h *ProductHandler) DirectSale(c *gin.Context) {
	code, ok := codeParam(c)
	if !ok {
		return
	}
	var req directSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyer := h.customers.WalkIn()
	if req.CustomerID != 0 {
		var err error
		if buyer, err = h.customers.Lookup(req.CustomerID); err != nil {
			writeError(c, err)
			return
		}
	}

	s, err := h.orders.RecordDirectSale(c.Request.Context(), buyer, code, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

func codeParam(c *gin.Context) (int, bool) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product code"})
		return 0, false
	}
	return code, true
}
