package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/service/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, allowHeader bool) (*gin.Engine, *auth.Service) {
	t.Helper()
	authSvc, err := auth.NewService("test-secret")
	require.NoError(t, err)

	r := gin.New()
	r.Use(RecoveryMiddleware(logger.NewNop()))
	r.Use(LoggingMiddleware(logger.NewNop()))
	r.Use(AuthMiddleware(authSvc, allowHeader))
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := GetReviewerID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/protected", RequireReviewer(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r, authSvc
}

// ========== 认证 ==========

func TestAuthMiddleware(t *testing.T) {
	r, authSvc := newEngine(t, true)
	token, err := authSvc.IssueToken("reviewer-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer " + token}, want: "reviewer-1"},
		{name: "token wins over header", headers: map[string]string{"Authorization": "Bearer " + token, "X-Reviewer-ID": "other"}, want: "reviewer-1"},
		{name: "header fallback", headers: map[string]string{"X-Reviewer-ID": "reviewer-2"}, want: "reviewer-2"},
		{name: "invalid token falls back", headers: map[string]string{"Authorization": "Bearer bad", "X-Reviewer-ID": "reviewer-3"}, want: "reviewer-3"},
		{name: "anonymous", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAuthMiddleware_HeaderDisabled(t *testing.T) {
	r, _ := newEngine(t, false)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Reviewer-ID", "reviewer-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireReviewer(t *testing.T) {
	r, authSvc := newEngine(t, false)
	token, err := authSvc.IssueToken("reviewer-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ========== 恢复 ==========

func TestRecoveryMiddleware(t *testing.T) {
	r, _ := newEngine(t, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
