package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// QueueRepository 审核队列仓库
type QueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository 创建审核队列仓库
func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// CreateIfNoActive 在同一事务中检查并插入
// 题目已有 PENDING/IN_REVIEW 条目时返回 ErrActiveQueueEntryExists
func (r *QueueRepository) CreateIfNoActive(ctx context.Context, entry *model.ReviewQueueEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.ReviewQueueEntry{}).
			Where("problem_id = ? AND status IN ?", entry.ProblemID, model.ActiveQueueStatuses).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check active entries: %w", err)
		}
		if count > 0 {
			return ErrActiveQueueEntryExists
		}
		return tx.Create(entry).Error
	})
}

// GetByID 根据 ID 获取条目
func (r *QueueRepository) GetByID(ctx context.Context, id string) (*model.ReviewQueueEntry, error) {
	var entry model.ReviewQueueEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetActiveByProblem 获取题目当前未结束的条目
func (r *QueueRepository) GetActiveByProblem(ctx context.Context, problemID string) (*model.ReviewQueueEntry, error) {
	var entry model.ReviewQueueEntry
	err := r.db.WithContext(ctx).
		Where("problem_id = ? AND status IN ?", problemID, model.ActiveQueueStatuses).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List 按状态和审核员过滤，优先级高的在前
func (r *QueueRepository) List(ctx context.Context, status model.QueueStatus, assigneeID string, offset, limit int) ([]*model.ReviewQueueEntry, int64, error) {
	var entries []*model.ReviewQueueEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ReviewQueueEntry{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	err := query.Order("priority DESC, created_at ASC").Find(&entries).Error
	return entries, total, err
}

// UpdateStatus 条件更新条目状态
// 仅当当前状态等于 from 时写入，返回是否命中
func (r *QueueRepository) UpdateStatus(ctx context.Context, entry *model.ReviewQueueEntry, from model.QueueStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.ReviewQueueEntry{}).
		Where("id = ? AND status = ?", entry.ID, from).
		Updates(map[string]interface{}{
			"status":       entry.Status,
			"assignee_id":  entry.AssigneeID,
			"note":         entry.Note,
			"assigned_at":  entry.AssignedAt,
			"completed_at": entry.CompletedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
