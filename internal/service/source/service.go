// Package source 内容来源管理
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
)

var (
	// ErrSourceNotFound 来源不存在
	ErrSourceNotFound = errors.New("source not found")
	// ErrInvalidSource 来源参数不合法
	ErrInvalidSource = errors.New("invalid source")
)

// CreateRequest 创建来源请求
type CreateRequest struct {
	Name        string            `json:"name" binding:"required"`
	URL         string            `json:"url"`
	Grade       model.SourceGrade `json:"grade"`
	TrustScore  *float64          `json:"trust_score"`
	Description string            `json:"description"`
}

// Service 来源服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建来源服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// Create 创建来源，等级缺省为 C
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*model.Source, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSource)
	}
	grade := model.SourceGrade(strings.ToUpper(string(req.Grade)))
	if grade == "" {
		grade = model.SourceGradeC
	}
	if !grade.Valid() {
		return nil, fmt.Errorf("%w: unknown grade %q", ErrInvalidSource, req.Grade)
	}
	if req.TrustScore != nil && (*req.TrustScore < 0 || *req.TrustScore > 100) {
		return nil, fmt.Errorf("%w: trust_score must be within [0, 100]", ErrInvalidSource)
	}

	src := &model.Source{
		Name:        name,
		URL:         req.URL,
		Grade:       grade,
		TrustScore:  req.TrustScore,
		Description: req.Description,
	}
	if err := s.repo.Source.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	return src, nil
}

// Get 获取来源
func (s *Service) Get(ctx context.Context, id string) (*model.Source, error) {
	src, err := s.repo.Source.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}
	return src, nil
}

// List 分页列出来源
func (s *Service) List(ctx context.Context, page, size int) ([]*model.Source, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.repo.Source.List(ctx, (page-1)*size, size)
}
