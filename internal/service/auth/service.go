// Package auth 审核员身份令牌
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL 默认令牌有效期
	DefaultTokenTTL = 24 * time.Hour

	claimReviewerID = "reviewer_id"
	tokenTypeAccess = "access"
)

var (
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid token")
	// ErrReviewerRequired 签发令牌缺少审核员
	ErrReviewerRequired = errors.New("reviewer id is required")
)

// Service 令牌签发与校验
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService 创建令牌服务，secret 为空时生成进程内随机密钥
func NewService(secret string) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = base64.StdEncoding.EncodeToString(randomBytes)
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// IssueToken 为审核员签发访问令牌
func (s *Service) IssueToken(reviewerID string, ttl time.Duration) (string, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return "", ErrReviewerRequired
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	claims := jwt.MapClaims{
		claimReviewerID: reviewerID,
		"sub":           reviewerID,
		"exp":           now.Add(ttl).Unix(),
		"iat":           now.Unix(),
		"type":          tokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ValidateToken 校验令牌并返回审核员 ID
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if t, _ := claims["type"].(string); t != tokenTypeAccess {
		return "", ErrInvalidToken
	}

	reviewerID, _ := claims[claimReviewerID].(string)
	if reviewerID == "" {
		reviewerID, _ = claims["sub"].(string)
	}
	if reviewerID == "" {
		return "", ErrInvalidToken
	}
	return reviewerID, nil
}
