package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/server/http/dto"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// PointsHandler manages ledger endpoints.
type PointsHandler struct {
	facade LedgerFacade
}

// NewPointsHandler constructs PointsHandler.
func NewPointsHandler(facade LedgerFacade) *PointsHandler {
	return &PointsHandler{facade: facade}
}

// Earn handles POST /api/points/earn.
func (h *PointsHandler) Earn(c *gin.Context) {
	var req dto.EarnRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := dto.ParseAmount(req.Amount, req.Unit)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	res, err := h.facade.Earn(c.Request.Context(), usecase.EarnRequest{
		UserID:            req.UserID,
		CompanyID:         req.CompanyID,
		Amount:            amount,
		ReferenceID:       req.ReferenceID,
		ReferenceType:     req.ReferenceType,
		Description:       req.Description,
		DisputeWindowDays: req.DisputeWindowDays,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Deduplicated {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewMutationResponse(res.Transaction, res.Deduplicated, res.LevelChanged))
}

// Spend handles POST /api/points/spend.
func (h *PointsHandler) Spend(c *gin.Context) {
	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := dto.ParseAmount(req.Amount, req.Unit)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	res, err := h.facade.Spend(c.Request.Context(), usecase.SpendRequest{
		UserID:        req.UserID,
		Amount:        amount,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Description:   req.Description,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMutationResponse(res.Transaction, false, res.LevelChanged))
}

// Balance handles GET /api/users/:id/balance.
func (h *PointsHandler) Balance(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	balance, err := h.facade.Balance(c.Request.Context(), userID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		UserID:         userID,
		Balance:        points.FormatForAPI(balance),
		BalanceStorage: int64(balance),
	})
}

// Transactions handles GET /api/users/:id/transactions.
func (h *PointsHandler) Transactions(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	transactions, err := h.facade.Transactions(c.Request.Context(), userID)
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

// Level handles GET /api/users/:id/level.
func (h *PointsHandler) Level(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	level, err := h.facade.LevelForUser(c.Request.Context(), userID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if level == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, dto.LevelResponse{
		ID:        level.ID,
		Name:      level.Name,
		MinPoints: level.MinPoints,
		MaxPoints: level.MaxPoints,
		Benefits:  level.Benefits,
	})
}
