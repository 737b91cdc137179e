package rest

import (
	"net/http"
	"strconv"

	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/stats"
	"github.com/gin-gonic/gin"
)

// StatsHandler handles dashboard read-model REST endpoints.
type StatsHandler struct {
	svc *stats.Service
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Me handles GET /api/stats/me.
func (h *StatsHandler) Me(c *gin.Context) {
	userID := mw.GetUserID(c)
	s, err := h.svc.PerUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// TopGroups handles GET /api/stats/groups/top?limit=20.
func (h *StatsHandler) TopGroups(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ranks, err := h.svc.TopGroups(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": ranks})
}
