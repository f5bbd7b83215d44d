package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// SourceRepository 来源仓库
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository 创建来源仓库
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create 创建来源
func (r *SourceRepository) Create(ctx context.Context, source *model.Source) error {
	return r.db.WithContext(ctx).Create(source).Error
}

// GetByID 根据 ID 获取来源
func (r *SourceRepository) GetByID(ctx context.Context, id string) (*model.Source, error) {
	var source model.Source
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&source).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// List 列出来源
func (r *SourceRepository) List(ctx context.Context, offset, limit int) ([]*model.Source, error) {
	var sources []*model.Source
	query := r.db.WithContext(ctx).Order("name ASC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	err := query.Find(&sources).Error
	return sources, err
}

// Update 更新来源
func (r *SourceRepository) Update(ctx context.Context, source *model.Source) error {
	return r.db.WithContext(ctx).Save(source).Error
}
