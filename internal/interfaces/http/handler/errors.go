package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apporder "retailhub/internal/application/order"
	"retailhub/internal/domain/customer"
	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/order"
)

// statusFor maps service errors to HTTP status codes. Anything not listed is
// treated as a bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apporder.ErrOrderNotFound),
		errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, customer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apporder.ErrOrderClosed),
		errors.Is(err, apporder.ErrOrderNotReady),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrBelowReserved),
		errors.Is(err, inventory.ErrDuplicateCode),
		errors.Is(err, customer.ErrDuplicateID),
		errors.Is(err, domain.ErrItemAlreadyProcessed):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
