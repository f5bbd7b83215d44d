package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// scoreColumns 流水线维护的评分列，只能整体写入
var scoreColumns = []string{"accuracy_score", "clarity_score", "difficulty_fit", "trust_score", "quality_score", "scored_at"}

// ProblemFilter 题目查询条件
type ProblemFilter struct {
	Status      model.ProblemStatus
	ReviewStage model.ReviewStage
	Type        model.ProblemType
	SubjectID   string
	SourceID    string
	Keyword     string
	Page        int
	PageSize    int
}

// ProblemRepository 题目仓库
type ProblemRepository struct {
	db *gorm.DB
}

// NewProblemRepository 创建题目仓库
func NewProblemRepository(db *gorm.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// Create 创建题目
func (r *ProblemRepository) Create(ctx context.Context, problem *model.Problem) error {
	return r.db.WithContext(ctx).Create(problem).Error
}

// CreateBatch 批量创建题目
func (r *ProblemRepository) CreateBatch(ctx context.Context, problems []*model.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&problems).Error
}

// GetByID 根据 ID 获取题目
func (r *ProblemRepository) GetByID(ctx context.Context, id string) (*model.Problem, error) {
	var problem model.Problem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&problem).Error
	if err != nil {
		return nil, err
	}
	return &problem, nil
}

// List 分页查询题目
func (r *ProblemRepository) List(ctx context.Context, filter ProblemFilter) ([]*model.Problem, int64, error) {
	var problems []*model.Problem
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Problem{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReviewStage != "" {
		query = query.Where("review_stage = ?", filter.ReviewStage)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.SubjectID != "" {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.SourceID != "" {
		query = query.Where("source_id = ?", filter.SourceID)
	}
	if filter.Keyword != "" {
		query = query.Where("content LIKE ?", "%"+filter.Keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count problems: %w", err)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	err := query.Order("created_at DESC").Find(&problems).Error
	return problems, total, err
}

// ListByState 按状态二元组查询，按创建时间升序
func (r *ProblemRepository) ListByState(ctx context.Context, state model.ProblemState, limit int) ([]*model.Problem, error) {
	var problems []*model.Problem
	query := r.db.WithContext(ctx).
		Where("status = ? AND review_stage = ?", state.Status, state.ReviewStage).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&problems).Error
	return problems, err
}

// Update 更新题目内容字段，不触碰状态和评分列
func (r *ProblemRepository) Update(ctx context.Context, problem *model.Problem) error {
	omit := append([]string{"status", "review_stage", "usage_count", "correct_rate", "created_at"}, scoreColumns...)
	return r.db.WithContext(ctx).Model(problem).Select("*").Omit(omit...).Updates(problem).Error
}

// UpdateState 条件更新状态二元组
// 仅当当前状态等于 from 时才写入，返回是否命中
func (r *ProblemRepository) UpdateState(ctx context.Context, id string, from, to model.ProblemState) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Problem{}).
		Where("id = ? AND status = ? AND review_stage = ?", id, from.Status, from.ReviewStage).
		Updates(map[string]interface{}{
			"status":       to.Status,
			"review_stage": to.ReviewStage,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateScores 整体写入评分列
func (r *ProblemRepository) UpdateScores(ctx context.Context, id string, scores model.QualityScores, at time.Time) error {
	var problem model.Problem
	problem.ApplyScores(scores, at)
	return r.db.WithContext(ctx).Model(&model.Problem{}).
		Where("id = ?", id).
		Select(scoreColumns).
		Updates(&problem).Error
}

// RecordUsage 累加作答统计
func (r *ProblemRepository) RecordUsage(ctx context.Context, id string, attempts, correct int) (*model.Problem, error) {
	var problem model.Problem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&problem).Error; err != nil {
			return err
		}
		if err := problem.RecordAttempts(attempts, correct); err != nil {
			return err
		}
		return tx.Model(&problem).Select("usage_count", "correct_rate").Updates(&problem).Error
	})
	if err != nil {
		return nil, err
	}
	return &problem, nil
}

// FindInBatches 分批遍历未归档题目，用于重复检测的全量扫描
func (r *ProblemRepository) FindInBatches(ctx context.Context, batchSize int, fn func(batch []*model.Problem) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	var batch []*model.Problem
	result := r.db.WithContext(ctx).
		Select("id", "content", "status").
		Where("status <> ?", model.ProblemStatusArchived).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(batch)
		})
	return result.Error
}

// Delete 删除题目
func (r *ProblemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Problem{}, "id = ?", id).Error
}
