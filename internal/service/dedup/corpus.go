package dedup

import (
	"context"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// CorpusProvider 语料提供者，按批回调
type CorpusProvider interface {
	Candidates(ctx context.Context, content string, fn func(batch []Entry) error) error
}

// ProblemFinder 分批读取题目
type ProblemFinder interface {
	FindInBatches(ctx context.Context, batchSize int, fn func(batch []*model.Problem) error) error
}

// ScanCorpus 对题库做全量线性扫描
type ScanCorpus struct {
	finder    ProblemFinder
	batchSize int
}

// NewScanCorpus 创建全量扫描语料
func NewScanCorpus(finder ProblemFinder, batchSize int) *ScanCorpus {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ScanCorpus{finder: finder, batchSize: batchSize}
}

// Candidates 实现 CorpusProvider
func (c *ScanCorpus) Candidates(ctx context.Context, _ string, fn func(batch []Entry) error) error {
	return c.finder.FindInBatches(ctx, c.batchSize, func(batch []*model.Problem) error {
		entries := make([]Entry, len(batch))
		for i, p := range batch {
			entries[i] = Entry{ID: p.ID, Content: p.Content}
		}
		return fn(entries)
	})
}

// SliceCorpus 内存语料
type SliceCorpus []Entry

// Candidates 实现 CorpusProvider
func (c SliceCorpus) Candidates(_ context.Context, _ string, fn func(batch []Entry) error) error {
	if len(c) == 0 {
		return nil
	}
	return fn(c)
}
