package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "divvy/internal/errors"
	"divvy/internal/services"
)

// FriendHandler handles friendship requests.
type FriendHandler struct {
	friendService services.FriendServicer
	auditService  services.AuditServicer
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(friendService services.FriendServicer, auditService services.AuditServicer) *FriendHandler {
	return &FriendHandler{friendService: friendService, auditService: auditService}
}

// FriendRequest identifies a friend by email.
type FriendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AddFriend sends a friend request, or accepts a pending one from the
// same person.
func (h *FriendHandler) AddFriend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	friend, err := h.friendService.AddFriend(userID, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_FRIEND", "friendship", friend.UserID, c.ClientIP(),
		map[string]interface{}{"email": req.Email, "status": friend.Status})

	c.JSON(http.StatusOK, gin.H{"friend": friend})
}

// RejectFriend declines a pending friend request.
func (h *FriendHandler) RejectFriend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.friendService.RejectFriend(userID, req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REJECT_FRIEND", "friendship", 0, c.ClientIP(),
		map[string]interface{}{"email": req.Email})

	c.Status(http.StatusNoContent)
}

// RemoveFriend deletes both sides of a friendship.
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.friendService.RemoveFriend(userID, req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_FRIEND", "friendship", 0, c.ClientIP(),
		map[string]interface{}{"email": req.Email})

	c.Status(http.StatusNoContent)
}

// GetFriends lists the caller's friendships with status and signed balance.
func (h *FriendHandler) GetFriends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	friends, err := h.friendService.GetFriends(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}
