package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrActiveQueueEntryExists 题目已存在未结束的审核队列条目
var ErrActiveQueueEntryExists = errors.New("problem already has an active review queue entry")

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB       *gorm.DB // 直接访问数据库
	Problem  *ProblemRepository
	Source   *SourceRepository
	Review   *ReviewRepository
	Queue    *QueueRepository
	Document *DocumentRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		Problem:  NewProblemRepository(db),
		Source:   NewSourceRepository(db),
		Review:   NewReviewRepository(db),
		Queue:    NewQueueRepository(db),
		Document: NewDocumentRepository(db),
	}
}

// Transaction 在单个事务中执行 fn，fn 收到绑定到事务的仓库集合
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// IsNotFound 是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
