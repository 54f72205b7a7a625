package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appcustomer "retailhub/internal/application/customer"
	appinventory "retailhub/internal/application/inventory"
	apporder "retailhub/internal/application/order"
	domain "retailhub/internal/domain/order"
)

type OrderHandler struct {
	orders         *apporder.Manager
	catalog        *appinventory.Catalog
	customers      *appcustomer.Directory
	allowBackorder bool
}

func NewOrderHandler(orders *apporder.Manager, catalog *appinventory.Catalog, customers *appcustomer.Directory, allowBackorder bool) *OrderHandler {
	return &OrderHandler{
		orders:         orders,
		catalog:        catalog,
		customers:      customers,
		allowBackorder: allowBackorder,
	}
}

type orderLineRequest struct {
	ProductCode int `json:"product_code" binding:"required"`
	Quantity    int `json:"quantity" binding:"required"`
}

type CreateOrderRequest struct {
	CustomerID     int                `json:"customer_id" binding:"required"`
	AllowBackorder *bool              `json:"allow_backorder"`
	Items          []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buyer, err := h.customers.Lookup(req.CustomerID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*domain.Item, 0, len(req.Items))
	for _, line := range req.Items {
		p, err := h.catalog.Product(line.ProductCode)
		if err != nil {
			writeError(c, err)
			return
		}
		it, err := domain.NewItem(p, line.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		items = append(items, it)
	}

	allow := h.allowBackorder
	if req.AllowBackorder != nil {
		allow = *req.AllowBackorder
	}

	o, err := h.orders.CreateOrder(c.Request.Context(), buyer, items, allow)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o.Snapshot())
}

func (h *OrderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.AllOrders())
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	v, err := h.orders.FindByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Fulfill retries reservation for an open order. Ready and partial results
// answer 200, no progress 422, closed 409, unknown 404.
func (h *OrderHandler) Fulfill(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.orders.FulfillOrder(c.Request.Context(), id)

	status := http.StatusOK
	switch res {
	case domain.FulfillNotFound:
		status = http.StatusNotFound
	case domain.FulfillClosed:
		status = http.StatusConflict
	case domain.FulfillNoProgress:
		status = http.StatusUnprocessableEntity
	}

	body := gin.H{"id": id, "result": res.String()}
	if v, err := h.orders.FindByID(id); err == nil {
		body["order"] = v
	}
	c.JSON(status, body)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.orders.CancelOrder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	v, _ := h.orders.FindByID(id)
	c.JSON(http.StatusOK, v)
}

func (h *OrderHandler) Deliver(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	s, err := h.orders.DeliverOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
