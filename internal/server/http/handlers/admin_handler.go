package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perkhub/pointsledger/internal/points"
	"github.com/perkhub/pointsledger/internal/server/http/dto"
	"github.com/perkhub/pointsledger/internal/usecase"
)

// AdminHandler manages privileged endpoints behind the admin key.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Adjust handles POST /api/admin/points/adjust.
func (h *AdminHandler) Adjust(c *gin.Context) {
	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	amount, err := dto.ParseAmount(req.Amount, req.Unit)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	res, err := h.facade.Adjust(c.Request.Context(), usecase.AdjustRequest{
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

// ResolveDispute handles POST /api/admin/disputes/:id/resolve.
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AdminUserID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	var adjustment points.Amount
	if !req.Adjustment.IsZero() {
		parsed, err := dto.ParseAmount(req.Adjustment, req.Unit)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		adjustment = parsed
	}

	dispute, err := h.facade.ResolveDispute(c.Request.Context(), disputeID, req.AdminUserID, req.Approved, req.Response, adjustment)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDisputeResponse(dispute))
}

// ConsistencyReport handles GET /api/admin/consistency/report.
func (h *AdminHandler) ConsistencyReport(c *gin.Context) {
	report, err := h.facade.RunConsistencyCheck(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewConsistencyReportResponse(report))
}

// FixBalance handles POST /api/admin/consistency/users/:id/fix.
func (h *AdminHandler) FixBalance(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	repair, err := h.facade.FixUserBalance(c.Request.Context(), userID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRepairResponse(repair))
}
