package rest

import (
	"net/http"
	"strconv"

	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/social"
	"github.com/gin-gonic/gin"
)

// SocialHandler handles friend-graph REST endpoints.
type SocialHandler struct {
	svc *social.Service
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(svc *social.Service) *SocialHandler {
	return &SocialHandler{svc: svc}
}

// ListFriends handles GET /api/social/friends.
func (h *SocialHandler) ListFriends(c *gin.Context) {
	userID := mw.GetUserID(c)
	links, err := h.svc.ListFriends(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": links})
}

// ListPending handles GET /api/social/requests.
func (h *SocialHandler) ListPending(c *gin.Context) {
	userID := mw.GetUserID(c)
	links, err := h.svc.ListPendingIncoming(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": links})
}

// ListSuggestions handles GET /api/social/suggestions?limit=10.
func (h *SocialHandler) ListSuggestions(c *gin.Context) {
	userID := mw.GetUserID(c)
	limit, _ := strconv.Atoi(c.Query("limit"))
	accounts, err := h.svc.ListSuggestions(c.Request.Context(), userID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": accounts})
}

// SendRequest handles POST /api/social/requests.
func (h *SocialHandler) SendRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req struct {
		TargetID int64 `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	link, err := h.svc.SendRequest(c.Request.Context(), userID, req.TargetID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// AcceptRequest handles POST /api/social/requests/:id/accept.
func (h *SocialHandler) AcceptRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.AcceptRequest(c.Request.Context(), userID, requestID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "accepted"})
}

// RejectRequest handles POST /api/social/requests/:id/reject.
func (h *SocialHandler) RejectRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.RejectRequest(c.Request.Context(), userID, requestID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rejected"})
}

// CancelRequest handles DELETE /api/social/requests/:id.
func (h *SocialHandler) CancelRequest(c *gin.Context) {
	userID := mw.GetUserID(c)
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.CancelRequest(c.Request.Context(), userID, requestID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

// Unfriend handles DELETE /api/social/friends/:id.
func (h *SocialHandler) Unfriend(c *gin.Context) {
	userID := mw.GetUserID(c)
	otherID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Unfriend(c.Request.Context(), userID, otherID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfriended"})
}
