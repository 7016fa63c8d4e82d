package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perkhub/pointsledger/internal/server/http/dto"
)

// PurchaseHandler manages mall purchase endpoints.
type PurchaseHandler struct {
	facade PurchaseFacade
}

// NewPurchaseHandler constructs PurchaseHandler.
func NewPurchaseHandler(facade PurchaseFacade) *PurchaseHandler {
	return &PurchaseHandler{facade: facade}
}

// Create handles POST /api/purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 || req.ItemID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	cost, err := dto.ParseAmount(req.Cost, req.Unit)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	purchase, err := h.facade.CreatePurchase(c.Request.Context(), req.UserID, req.ItemID, cost, req.Description)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPurchaseResponse(purchase))
}

// Get handles GET /api/purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.facade.Purchase(c.Request.Context(), purchaseID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPurchaseResponse(purchase))
}

// Complete handles POST /api/purchases/:id/complete.
func (h *PurchaseHandler) Complete(c *gin.Context) {
	purchaseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.facade.CompletePurchase(c.Request.Context(), purchaseID); err != nil {
		writeDomainError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// Cancel handles POST /api/purchases/:id/cancel.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	purchaseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.facade.CancelPurchase(c.Request.Context(), purchaseID); err != nil {
		writeDomainError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
