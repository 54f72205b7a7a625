package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appcustomer "retailhub/internal/application/customer"
	apporder "retailhub/internal/application/order"
	"retailhub/internal/application/sales"
)

type CustomerHandler struct {
	customers *appcustomer.Directory
	orders    *apporder.Manager
	history   *sales.History
}

func NewCustomerHandler(customers *appcustomer.Directory, orders *apporder.Manager, history *sales.History) *CustomerHandler {
	return &CustomerHandler{customers: customers, orders: orders, history: history}
}

func (h *CustomerHandler) Register(c *gin.Context) {
	var cmd appcustomer.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cust, err := h.customers.Register(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// List returns every customer, or the one matching ?email= when given.
func (h *CustomerHandler) List(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		cust, err := h.customers.FindByEmail(email)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cust)
		return
	}
	c.JSON(http.StatusOK, h.customers.List())
}

func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := customerParam(c)
	if !ok {
		return
	}
	cust, err := h.customers.FindByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *CustomerHandler) Orders(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.orders.OrdersForCustomer(id))
}

func (h *CustomerHandler) Sales(c *gin.Context) {
	id, ok := h.existing(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.history.ForCustomer(id))
}

func (h *CustomerHandler) existing(c *gin.Context) (int, bool) {
	id, ok := customerParam(c)
	if !ok {
		return 0, false
	}
	if _, err := h.customers.FindByID(id); err != nil {
		writeError(c, err)
		return 0, false
	}
	return id, true
}

func customerParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return 0, false
	}
	return id, true
}
