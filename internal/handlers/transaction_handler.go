package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "divvy/internal/errors"
	"divvy/internal/pagination"
	"divvy/internal/services"
	"divvy/internal/validator"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// SplitRequest is the split portion of a create request.
type SplitRequest struct {
	With        uint   `json:"with" binding:"required"`
	IPaid       bool   `json:"iPaid"`
	OtherAmount string `json:"otherAmount" binding:"required,money"`
	MyShare     string `json:"myShare" binding:"required,money"`
	TheirShare  string `json:"theirShare" binding:"required,money"`
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Frame       int           `json:"frame"`
	Amount      string        `json:"amount" binding:"required,money"`
	Description string        `json:"description" binding:"max=500"`
	CategoryID  *uint         `json:"category"`
	Date        string        `json:"date" binding:"required,tx_date"`
	Split       *SplitRequest `json:"split"`
}

// CreateTransaction handles the creation of a new transaction
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := validator.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.CreateTransactionInput{
		Frame:       req.Frame,
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        date,
	}
	if req.Split != nil {
		input.Split = &services.SplitInput{
			With:        req.Split.With,
			IPaid:       req.Split.IPaid,
			OtherAmount: req.Split.OtherAmount,
			MyShare:     req.Split.MyShare,
			TheirShare:  req.Split.TheirShare,
		}
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"frame": req.Frame, "amount": req.Amount, "shared": req.Split != nil})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// UpdateAmountRequest carries a new amount.
type UpdateAmountRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

// UpdateAmount changes the amount of an unshared transaction
func (h *TransactionHandler) UpdateAmount(c *gin.Context) {
	h.updateField(c, "UPDATE_TRANSACTION_AMOUNT", func(userID, transactionID uint) error {
		var req UpdateAmountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return h.transactionService.UpdateAmount(userID, transactionID, req.Amount)
	})
}

// UpdateDateRequest carries a new date.
type UpdateDateRequest struct {
	Date string `json:"date" binding:"required,tx_date"`
}

// UpdateDate changes the date of a transaction and its paired transaction
func (h *TransactionHandler) UpdateDate(c *gin.Context) {
	h.updateField(c, "UPDATE_TRANSACTION_DATE", func(userID, transactionID uint) error {
		var req UpdateDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return h.transactionService.UpdateDate(userID, transactionID, req.Date)
	})
}

// UpdateDescriptionRequest carries a new description.
type UpdateDescriptionRequest struct {
	Description string `json:"description" binding:"max=500"`
}

// UpdateDescription changes the description of a transaction and its
// paired transaction
func (h *TransactionHandler) UpdateDescription(c *gin.Context) {
	h.updateField(c, "UPDATE_TRANSACTION_DESCRIPTION", func(userID, transactionID uint) error {
		var req UpdateDescriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return h.transactionService.UpdateDescription(userID, transactionID, req.Description)
	})
}

// UpdateCategoryRequest carries a new category; zero or absent clears it.
type UpdateCategoryRequest struct {
	Category *uint `json:"category"`
}

// UpdateCategory re-points a transaction at a category
func (h *TransactionHandler) UpdateCategory(c *gin.Context) {
	h.updateField(c, "UPDATE_TRANSACTION_CATEGORY", func(userID, transactionID uint) error {
		var req UpdateCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return h.transactionService.UpdateCategory(userID, transactionID, req.Category)
	})
}

// UpdateSplitRequest adjusts how a shared expense is divided.
type UpdateSplitRequest struct {
	SplitID    uint   `json:"sid" binding:"required"`
	Total      string `json:"total" binding:"required,money"`
	MyShare    string `json:"myShare" binding:"required,money"`
	TheirShare string `json:"theirShare" binding:"required,money"`
	IPaid      bool   `json:"iPaid"`
}

// UpdateSplit re-distributes a shared expense between the two parties
func (h *TransactionHandler) UpdateSplit(c *gin.Context) {
	h.updateField(c, "UPDATE_TRANSACTION_SPLIT", func(userID, transactionID uint) error {
		var req UpdateSplitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		return h.transactionService.UpdateSplit(userID, services.UpdateSplitInput{
			TransactionID: transactionID,
			SplitID:       req.SplitID,
			Total:         req.Total,
			MyShare:       req.MyShare,
			TheirShare:    req.TheirShare,
			IPaid:         req.IPaid,
		})
	})
}

// updateField is the shared scaffolding of the field-update endpoints:
// auth, path ID, delegate, audit, 204.
func (h *TransactionHandler) updateField(c *gin.Context, action string, do func(userID, transactionID uint) error) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := do(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetFrameTransactions lists the alive transactions of one frame
func (h *TransactionHandler) GetFrameTransactions(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.transactionService.GetFrameTransactions(userID, index, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
