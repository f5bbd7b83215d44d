// Package model 提供题库内容相关的数据模型
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProblemType 题型
type ProblemType string

const (
	ProblemTypeMultipleChoice ProblemType = "MULTIPLE_CHOICE" // 选择题
	ProblemTypeShortAnswer    ProblemType = "SHORT_ANSWER"    // 简答题
	ProblemTypeEssay          ProblemType = "ESSAY"           // 论述题
	ProblemTypeTrueFalse      ProblemType = "TRUE_FALSE"      // 判断题
)

// Valid 是否为已知题型
func (t ProblemType) Valid() bool {
	switch t {
	case ProblemTypeMultipleChoice, ProblemTypeShortAnswer, ProblemTypeEssay, ProblemTypeTrueFalse:
		return true
	}
	return false
}

// ProblemStatus 发布状态
type ProblemStatus string

const (
	ProblemStatusDraft    ProblemStatus = "DRAFT"
	ProblemStatusPending  ProblemStatus = "PENDING"
	ProblemStatusApproved ProblemStatus = "APPROVED"
	ProblemStatusRejected ProblemStatus = "REJECTED"
	ProblemStatusArchived ProblemStatus = "ARCHIVED"
)

// ReviewStage 审核阶段（与发布状态相互独立）
type ReviewStage string

const (
	ReviewStageNone   ReviewStage = "NONE"
	ReviewStageAuto   ReviewStage = "AUTO"
	ReviewStageAI     ReviewStage = "AI"
	ReviewStageManual ReviewStage = "MANUAL"
)

// DifficultyTier 声明难度档位
type DifficultyTier string

const (
	DifficultyLow    DifficultyTier = "LOW"
	DifficultyMedium DifficultyTier = "MEDIUM"
	DifficultyHigh   DifficultyTier = "HIGH"
)

// ProblemState 持久化的状态二元组
type ProblemState struct {
	Status      ProblemStatus `json:"status"`
	ReviewStage ReviewStage   `json:"review_stage"`
}

// Problem 题目
type Problem struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Content     string         `json:"content" gorm:"type:text;not null"`
	Type        ProblemType    `json:"type" gorm:"type:varchar(20);index"`
	Options     string         `json:"options" gorm:"type:text"` // JSON 字符串数组
	Answer      string         `json:"answer" gorm:"type:text"`
	Explanation string         `json:"explanation" gorm:"type:text"`
	GradeLevel  int            `json:"grade_level" gorm:"default:0"`
	SubjectID   string         `json:"subject_id" gorm:"type:varchar(36);index"`
	Difficulty  DifficultyTier `json:"difficulty" gorm:"type:varchar(10)"`
	SourceID    string         `json:"source_id" gorm:"type:varchar(36);index"`
	DocumentID  string         `json:"document_id,omitempty" gorm:"type:varchar(36);index"` // 来源原始文档
	ContentHash string         `json:"content_hash" gorm:"type:varchar(64);index"`

	// 使用统计
	UsageCount  int      `json:"usage_count" gorm:"default:0"`
	CorrectRate *float64 `json:"correct_rate,omitempty"`

	// 流水线维护的评分字段（0-100），只能通过 ApplyScores 整体更新
	AccuracyScore float64    `json:"accuracy_score" gorm:"default:0"`
	ClarityScore  float64    `json:"clarity_score" gorm:"default:0"`
	DifficultyFit float64    `json:"difficulty_fit" gorm:"default:0"`
	TrustScore    float64    `json:"trust_score" gorm:"default:0"`
	QualityScore  float64    `json:"quality_score" gorm:"default:0;index"`
	ScoredAt      *time.Time `json:"scored_at,omitempty"`

	// 状态
	Status      ProblemStatus `json:"status" gorm:"type:varchar(20);default:'DRAFT';index"`
	ReviewStage ReviewStage   `json:"review_stage" gorm:"type:varchar(20);default:'NONE'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID 并填充默认状态
func (p *Problem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.ContentHash == "" {
		p.ContentHash = HashContent(p.Content)
	}
	if p.Status == "" {
		p.Status = ProblemStatusDraft
	}
	if p.ReviewStage == "" {
		p.ReviewStage = ReviewStageNone
	}
	return nil
}

// TableName 指定表名
func (Problem) TableName() string {
	return "problems"
}

// State 当前状态二元组
func (p *Problem) State() ProblemState {
	return ProblemState{Status: p.Status, ReviewStage: p.ReviewStage}
}

// GetOptions 解析选项 JSON
// 空字符串视为没有选项；格式错误返回 error，由调用方决定如何降级
func (p *Problem) GetOptions() ([]string, error) {
	return DecodeOptions(p.Options)
}

// SetOptions 设置选项列表
func (p *Problem) SetOptions(options []string) error {
	encoded, err := EncodeOptions(options)
	if err != nil {
		return err
	}
	p.Options = encoded
	return nil
}

// ApplyScores 整体写入五个评分字段
func (p *Problem) ApplyScores(s QualityScores, at time.Time) {
	p.AccuracyScore = s.AccuracyScore
	p.ClarityScore = s.ClarityScore
	p.DifficultyFit = s.DifficultyFit
	p.TrustScore = s.TrustScore
	p.QualityScore = s.OverallScore
	p.ScoredAt = &at
}

// RecordAttempts 累加作答统计，维护滚动正确率
func (p *Problem) RecordAttempts(attempts, correct int) error {
	if attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", attempts)
	}
	if correct < 0 || correct > attempts {
		return fmt.Errorf("correct must be within [0, %d], got %d", attempts, correct)
	}

	prevCorrect := 0.0
	if p.CorrectRate != nil {
		prevCorrect = *p.CorrectRate * float64(p.UsageCount)
	}
	p.UsageCount += attempts
	rate := (prevCorrect + float64(correct)) / float64(p.UsageCount)
	p.CorrectRate = &rate
	return nil
}

// QualityScores 质量评分结果
type QualityScores struct {
	AccuracyScore float64 `json:"accuracy_score"`
	ClarityScore  float64 `json:"clarity_score"`
	DifficultyFit float64 `json:"difficulty_fit"`
	TrustScore    float64 `json:"trust_score"`
	UsageScore    float64 `json:"usage_score"`
	OverallScore  float64 `json:"overall_score"`
}

// DecodeOptions 解析选项 JSON 字符串
func DecodeOptions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, fmt.Errorf("malformed options json: %w", err)
	}
	return options, nil
}

// EncodeOptions 编码选项列表
func EncodeOptions(options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HashContent 归一化空白后的题干哈希
func HashContent(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
