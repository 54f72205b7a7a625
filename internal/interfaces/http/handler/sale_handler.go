package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retailhub/internal/application/sales"
)

type SaleHandler struct {
	history *sales.History
}

func NewSaleHandler(history *sales.History) *SaleHandler {
	return &SaleHandler{history: history}
}

// List returns all sales, filtered by ?customer_id= when present.
func (h *SaleHandler) List(c *gin.Context) {
	raw := c.Query("customer_id")
	if raw == "" {
		c.JSON(http.StatusOK, h.history.List())
		return
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	c.JSON(http.StatusOK, h.history.ForCustomer(id))
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
