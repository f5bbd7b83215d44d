package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// DocumentRepository 原始文档仓库
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建原始文档仓库
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create 创建文档记录
func (r *DocumentRepository) Create(ctx context.Context, doc *model.SourceDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID 根据ID获取文档
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.SourceDocument, error) {
	var doc model.SourceDocument
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarkProcessed 记录解析结果
func (r *DocumentRepository) MarkProcessed(ctx context.Context, id, status string, problemCount int, errMsg string) error {
	return r.db.WithContext(ctx).Model(&model.SourceDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"problem_count": problemCount,
			"error_msg":     errMsg,
		}).Error
}

// Delete 删除文档记录
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.SourceDocument{}, "id = ?", id).Error
}
