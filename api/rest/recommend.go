package rest

import (
	"net/http"
	"strconv"

	appdb "github.com/ayakura/gamehub/server/db"
	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/model"
	"github.com/ayakura/gamehub/server/recommend"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RecommendHandler handles library and recommendation REST endpoints.
type RecommendHandler struct {
	db  *gorm.DB
	svc *recommend.Service
}

// NewRecommendHandler creates a new RecommendHandler.
func NewRecommendHandler(db *gorm.DB, svc *recommend.Service) *RecommendHandler {
	return &RecommendHandler{db: db, svc: svc}
}

// ListLibrary handles GET /api/library.
func (h *RecommendHandler) ListLibrary(c *gin.Context) {
	userID := mw.GetUserID(c)
	var entries []model.LibraryEntry
	if err := h.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"library": entries})
}

// AddLibraryEntry handles POST /api/library.
func (h *RecommendHandler) AddLibraryEntry(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req struct {
		GameID int64   `json:"game_id" binding:"required"`
		Rating float64 `json:"rating"  binding:"omitempty,min=0,max=5"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := &model.LibraryEntry{UserID: userID, GameID: req.GameID, Rating: req.Rating}
	if err := h.db.Create(entry).Error; err != nil {
		if appdb.IsConflict(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "game already in library"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RateGame handles PUT /api/library/:game_id/rating.
func (h *RecommendHandler) RateGame(c *gin.Context) {
	userID := mw.GetUserID(c)
	gameID, err := strconv.ParseInt(c.Param("game_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Rating float64 `json:"rating" binding:"min=0,max=5"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.db.Model(&model.LibraryEntry{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Update("rating", req.Rating)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in library"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rated"})
}

// Recommend handles POST /api/recommendations. The caller supplies the
// candidate games (normally the enclosing catalog page); the response is
// the personalized ranking. Degrades to an empty list, never an error.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req struct {
		Candidates []recommend.Game `json:"candidates" binding:"required"`
		Limit      int              `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ranked := h.svc.Recommend(c.Request.Context(), userID, req.Candidates, req.Limit)
	c.JSON(http.StatusOK, gin.H{"recommendations": ranked})
}

// SimilarGames handles POST /api/games/:id/similar.
func (h *RecommendHandler) SimilarGames(c *gin.Context) {
	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Candidates []recommend.Game `json:"candidates" binding:"required"`
		Limit      int              `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	similar := h.svc.SimilarGames(c.Request.Context(), gameID, req.Candidates, req.Limit)
	c.JSON(http.StatusOK, gin.H{"similar": similar})
}
