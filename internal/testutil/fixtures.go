// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// CanceledContext 返回已取消的 context
func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// ProblemOption 题目夹具选项
type ProblemOption func(p *model.Problem)

// WithState 设置状态二元组
func WithState(status model.ProblemStatus, stage model.ReviewStage) ProblemOption {
	return func(p *model.Problem) {
		p.Status = status
		p.ReviewStage = stage
	}
}

// WithContent 设置题干
func WithContent(content string) ProblemOption {
	return func(p *model.Problem) {
		p.Content = content
	}
}

// WithSource 设置来源
func WithSource(sourceID string) ProblemOption {
	return func(p *model.Problem) {
		p.SourceID = sourceID
	}
}

// NewProblem 构造一道结构完整的选择题
func NewProblem(opts ...ProblemOption) *model.Problem {
	p := &model.Problem{
		Content:     "다음 중 소수가 아닌 것을 고르시오. 소수는 1과 자기 자신만을 약수로 가지는 수입니다.",
		Type:        model.ProblemTypeMultipleChoice,
		Options:     `["2","3","4","5"]`,
		Answer:      "③",
		Explanation: "4는 1, 2, 4를 약수로 가지므로 소수가 아닙니다.",
		GradeLevel:  7,
		Difficulty:  model.DifficultyLow,
		Status:      model.ProblemStatusDraft,
		ReviewStage: model.ReviewStageNone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateProblem 写入题目夹具
func CreateProblem(t *testing.T, db *gorm.DB, opts ...ProblemOption) *model.Problem {
	t.Helper()
	p := NewProblem(opts...)
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateSource 写入来源夹具
func CreateSource(t *testing.T, db *gorm.DB, grade model.SourceGrade) *model.Source {
	t.Helper()
	s := &model.Source{Name: "교육청 기출 " + string(grade), Grade: grade}
	require.NoError(t, db.Create(s).Error)
	return s
}
