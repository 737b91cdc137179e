package rest

import (
	"net/http"
	"strconv"

	"github.com/ayakura/gamehub/server/group"
	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/model"
	"github.com/gin-gonic/gin"
)

// GroupHandler handles group REST endpoints.
type GroupHandler struct {
	svc *group.Service
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc *group.Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

type createGroupRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=64"`
	Description string `json:"description" binding:"max=2000"`
	Visibility  string `json:"visibility"  binding:"omitempty,oneof=public private"`
	PhotoURL    string `json:"photo_url"   binding:"max=255"`
	BannerURL   string `json:"banner_url"  binding:"max=255"`
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.svc.CreateGroup(c.Request.Context(), userID, group.CreateSpec{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		PhotoURL:    req.PhotoURL,
		BannerURL:   req.BannerURL,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Detail handles GET /api/groups/:id.
func (h *GroupHandler) Detail(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	g, members, err := h.svc.Detail(c.Request.Context(), groupID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "members": members})
}

// List handles GET /api/groups?recommended=1&limit=20, excluding the
// caller's own groups.
func (h *GroupHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		groups []model.Group
		err    error
	)
	if c.Query("recommended") != "" {
		groups, err = h.svc.ListRecommended(c.Request.Context(), userID, limit)
	} else {
		groups, err = h.svc.ListAll(c.Request.Context(), userID)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Join handles POST /api/groups/:id/join.
func (h *GroupHandler) Join(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Join(c.Request.Context(), groupID, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

// Leave handles POST /api/groups/:id/leave.
func (h *GroupHandler) Leave(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Leave(c.Request.Context(), groupID, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left"})
}

// RemoveMember handles DELETE /api/groups/:id/members/:uid.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err1 := strconv.ParseInt(c.Param("id"), 10, 64)
	targetID, err2 := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), groupID, userID, targetID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// SetRole handles PUT /api/groups/:id/members/:uid/role.
func (h *GroupHandler) SetRole(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err1 := strconv.ParseInt(c.Param("id"), 10, 64)
	targetID, err2 := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	var req struct {
		Role int `json:"role" binding:"required,min=1,max=3"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetRole(c.Request.Context(), groupID, userID, targetID, req.Role); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// Delete handles DELETE /api/groups/:id.
func (h *GroupHandler) Delete(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.DeleteGroup(c.Request.Context(), groupID, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CreatePost handles POST /api/groups/:id/posts.
func (h *GroupHandler) CreatePost(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Content string `json:"content" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.CreatePost(c.Request.Context(), groupID, userID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListPosts handles GET /api/groups/:id/posts.
func (h *GroupHandler) ListPosts(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.svc.ListPosts(c.Request.Context(), groupID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// LikePost handles POST /api/posts/:id/like.
func (h *GroupHandler) LikePost(c *gin.Context) {
	userID := mw.GetUserID(c)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.LikePost(c.Request.Context(), postID, userID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "liked"})
}

// UploadMedia handles POST /api/groups/:id/media. File bytes live in
// external storage; this records the reference.
func (h *GroupHandler) UploadMedia(c *gin.Context) {
	userID := mw.GetUserID(c)
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		URL         string `json:"url"         binding:"required,max=255"`
		Kind        string `json:"kind"        binding:"omitempty,oneof=image video"`
		Description string `json:"description" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.svc.UploadMedia(c.Request.Context(), groupID, userID, req.URL, req.Kind, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMedia handles GET /api/groups/:id/media.
func (h *GroupHandler) ListMedia(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.svc.ListMedia(c.Request.Context(), groupID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": items})
}

// React handles POST /api/media/:id/react.
func (h *GroupHandler) React(c *gin.Context) {
	userID := mw.GetUserID(c)
	mediaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.React(c.Request.Context(), mediaID, userID, req.Kind); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reaction applied"})
}

// AddComment handles POST /api/groups/comments.
func (h *GroupHandler) AddComment(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req struct {
		ParentKind string `json:"parent_kind" binding:"required,oneof=post media"`
		ParentID   int64  `json:"parent_id"   binding:"required"`
		Content    string `json:"content"     binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), req.ParentKind, req.ParentID, userID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}
