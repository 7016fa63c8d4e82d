package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/server/http/dto"
)

const defaultExpiryWindowDays = 7

// DisputeHandler manages dispute filing endpoints.
type DisputeHandler struct {
	facade DisputeFacade
}

// NewDisputeHandler constructs DisputeHandler.
func NewDisputeHandler(facade DisputeFacade) *DisputeHandler {
	return &DisputeHandler{facade: facade}
}

// Create handles POST /api/disputes.
func (h *DisputeHandler) Create(c *gin.Context) {
	var req dto.CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TransactionID <= 0 || req.UserID <= 0 || req.Reason == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	var requested points.Amount
	if req.RequestedAmount != nil {
		amount, err := dto.ParseAmount(*req.RequestedAmount, req.Unit)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		requested = amount
	}

	dispute, err := h.facade.CreateDispute(c.Request.Context(), req.TransactionID, req.UserID, req.Reason, requested)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewDisputeResponse(dispute))
}

// Expiring handles GET /api/disputes/expiring. The optional days query
// bounds the lookahead window.
func (h *DisputeHandler) Expiring(c *gin.Context) {
	days := defaultExpiryWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		days = parsed
	}

	transactions, err := h.facade.ExpiringDisputes(c.Request.Context(), days)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if len(transactions) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		resp = append(resp, dto.NewTransactionResponse(tx))
	}
	c.JSON(http.StatusOK, resp)
}
