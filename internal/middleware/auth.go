package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	reviewerIDKey    = "reviewer_id"
	reviewerIDHeader = "X-Reviewer-ID"
)

// TokenValidator 校验令牌并返回审核员 ID
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AuthMiddleware 认证中间件
// 有效的 Bearer Token 优先；allowHeader 为 true 时回退到 X-Reviewer-ID 头
func AuthMiddleware(validator TokenValidator, allowHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if validator != nil && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if reviewerID, err := validator.ValidateToken(token); err == nil {
				c.Set(reviewerIDKey, reviewerID)
				c.Next()
				return
			}
		}

		if allowHeader {
			if reviewerID := strings.TrimSpace(c.GetHeader(reviewerIDHeader)); reviewerID != "" {
				c.Set(reviewerIDKey, reviewerID)
			}
		}
		c.Next()
	}
}

// RequireReviewer 要求已识别审核员，否则返回 401
func RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetReviewerID(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "reviewer identity required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetReviewerID 从上下文获取当前审核员ID
func GetReviewerID(c *gin.Context) (string, bool) {
	reviewerID, exists := c.Get(reviewerIDKey)
	if !exists {
		return "", false
	}
	id, ok := reviewerID.(string)
	return id, ok && id != ""
}
