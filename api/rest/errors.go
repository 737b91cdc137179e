package rest

import (
	"errors"
	"net/http"

	appdb "github.com/ayakura/gamehub/server/db"
	"github.com/ayakura/gamehub/server/group"
	"github.com/ayakura/gamehub/server/social"
	"github.com/gin-gonic/gin"
)

// writeServiceError maps service sentinel errors to distinct HTTP
// responses so clients can render specific messages.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, social.ErrNotFound), errors.Is(err, group.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, social.ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "already friends"})
	case errors.Is(err, social.ErrRequestPending):
		c.JSON(http.StatusConflict, gin.H{"error": "request already pending"})
	case errors.Is(err, social.ErrInvalidTarget):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid target"})
	case errors.Is(err, group.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
	case errors.Is(err, group.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "not a member"})
	case errors.Is(err, group.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	case errors.Is(err, group.ErrLastAdministrator):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "group needs at least one administrator"})
	case errors.Is(err, group.ErrCannotRemoveAdmin):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cannot remove an administrator"})
	case errors.Is(err, group.ErrInvalidReaction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reaction kind"})
	case errors.Is(err, appdb.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
