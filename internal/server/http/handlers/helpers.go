package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/perkhub/pointsledger/internal/domain/errors"
	"github.com/perkhub/pointsledger/internal/server/http/middleware"
)

// CurrentCaller extracts the authenticated service caller from context.
func CurrentCaller(c *gin.Context) string {
	val, ok := c.Get(middleware.CallerContextKey)
	if !ok {
		return ""
	}
	caller, _ := val.(string)
	return caller
}

// pathID parses a positive int64 path parameter, writing 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.Status(http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeDomainError maps domain sentinel errors onto HTTP status codes.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidAmount):
		c.Status(http.StatusUnprocessableEntity)
	case errors.Is(err, domainErrors.ErrInsufficientBalance), errors.Is(err, domainErrors.ErrNegativeBalance):
		c.Status(http.StatusPaymentRequired)
	case errors.Is(err, domainErrors.ErrDisputeAlreadyResolved), errors.Is(err, domainErrors.ErrPurchaseFinalized), errors.Is(err, domainErrors.ErrAlreadyExists):
		c.Status(http.StatusConflict)
	case errors.Is(err, domainErrors.ErrDisputeIneligible):
		c.Status(http.StatusForbidden)
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.Status(http.StatusInternalServerError)
	}
}
