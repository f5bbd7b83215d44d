package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// ReviewRepository 审核记录仓库，只追加
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建审核记录仓库
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Append 追加一条审核记录
func (r *ReviewRepository) Append(ctx context.Context, review *model.ProblemReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProblem 获取题目的审核历史，按时间升序
func (r *ReviewRepository) ListByProblem(ctx context.Context, problemID string) ([]*model.ProblemReview, error) {
	var reviews []*model.ProblemReview
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("created_at ASC, id ASC").
		Find(&reviews).Error
	return reviews, err
}
