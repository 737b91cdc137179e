package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	r := gin.New()
	r.Use(TraceID(), Logger(zap.New(core)))
	r.GET("/widgets", func(c *gin.Context) {
		c.Set(UserIDKey, int64(7))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, logs
}

func TestLogger_IncludesAuthenticatedUser(t *testing.T) {
	r, logs := newObservedRouter(zap.InfoLevel)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(7), fields["user_id"])
	assert.Equal(t, "/widgets", fields["path"])
	assert.NotEmpty(t, fields["trace_id"])
}

func TestLogger_AnonymousOmitsUserID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["user_id"]
	assert.False(t, ok)
}

func TestLogger_HealthChecksLogAtDebug(t *testing.T) {
	r, logs := newObservedRouter(zap.InfoLevel)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, logs.All())
}
