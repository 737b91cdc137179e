package rest

import (
	"net/http"
	"strconv"

	"github.com/ayakura/gamehub/server/audit"
	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/model"
	"github.com/ayakura/gamehub/server/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	sched  *scheduler.Scheduler
	audit  *audit.Service
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler. auditSvc may be nil.
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, auditSvc *audit.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, sched: sched, audit: auditSvc, logger: logger}
}

// Overview returns server-wide entity counts.
// GET /api/admin/overview
func (h *AdminHandler) Overview(c *gin.Context) {
	var accounts, groups, posts, media int64
	h.db.Model(&model.Account{}).Count(&accounts)
	h.db.Model(&model.Group{}).Count(&groups)
	h.db.Model(&model.Post{}).Count(&posts)
	h.db.Model(&model.MediaItem{}).Count(&media)
	c.JSON(http.StatusOK, gin.H{
		"accounts":        accounts,
		"groups":          groups,
		"posts":           posts,
		"media":           media,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListAccounts returns a page of accounts, newest first.
// GET /api/admin/accounts?offset=0&limit=50
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var accounts []model.Account
	if err := h.db.Order("id DESC").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

// BanAccount bans or unbans a user account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := model.StatusNormal
	if req.Ban {
		status = model.StatusBanned
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	h.logger.Info("admin changed account status",
		zap.Int64("account_id", accountID), zap.Int("status", status))
	if h.audit != nil {
		h.audit.Log(audit.Entry{
			TraceID:  mw.GetTraceID(c),
			Action:   "admin.ban",
			Request:  gin.H{"account_id": accountID, "ban": req.Ban},
			Response: gin.H{"status": status},
			IP:       c.ClientIP(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// RecentAudit returns the most recent audit log entries.
// GET /api/admin/audit?limit=100
func (h *AdminHandler) RecentAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []model.AuditLog
	if err := h.db.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
