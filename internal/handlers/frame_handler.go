package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "divvy/internal/errors"
	"divvy/internal/money"
	"divvy/internal/services"
)

// FrameHandler handles budget-frame requests.
type FrameHandler struct {
	frameService services.FrameServicer
	auditService services.AuditServicer
}

// NewFrameHandler creates a new FrameHandler.
func NewFrameHandler(frameService services.FrameServicer, auditService services.AuditServicer) *FrameHandler {
	return &FrameHandler{frameService: frameService, auditService: auditService}
}

// GetFrame returns one frame enriched with income, balance, spending and
// categories, synthesizing a ghost when no row exists
func (h *FrameHandler) GetFrame(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	index, err := parseFrameIndex(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	frame, err := h.frameService.GetFrame(userID, index)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"frame": frame})
}

// SetIncomeRequest carries a frame's income.
type SetIncomeRequest struct {
	Income string `json:"income" binding:"required,money"`
}

// SetIncome sets a frame's income and promotes it out of ghost state
func (h *FrameHandler) SetIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	index, err := parseFrameIndex(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	income, err := money.ParseNonNegative(req.Income)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.frameService.SetIncome(userID, index, income); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_FRAME_INCOME", "frame", uint(0), c.ClientIP(),
		map[string]interface{}{"frame": index, "income": req.Income})

	c.Status(http.StatusNoContent)
}
