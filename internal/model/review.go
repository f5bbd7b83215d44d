package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewOutcome 单次审核结论
type ReviewOutcome string

const (
	ReviewOutcomeApproved      ReviewOutcome = "APPROVED"
	ReviewOutcomeRejected      ReviewOutcome = "REJECTED"
	ReviewOutcomeNeedsRevision ReviewOutcome = "NEEDS_REVISION"
)

// Valid 是否为已知结论
func (o ReviewOutcome) Valid() bool {
	switch o {
	case ReviewOutcomeApproved, ReviewOutcomeRejected, ReviewOutcomeNeedsRevision:
		return true
	}
	return false
}

// ProblemReview 审核记录（只追加，不修改）
type ProblemReview struct {
	ID         string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProblemID  string         `json:"problem_id" gorm:"type:varchar(36);not null;index"`
	Stage      ReviewStage    `json:"stage" gorm:"type:varchar(20);not null"`
	Outcome    ReviewOutcome  `json:"outcome" gorm:"type:varchar(20);not null"`
	Score      float64        `json:"score"` // 审核置信度 × 100
	ReviewerID string         `json:"reviewer_id,omitempty" gorm:"type:varchar(64)"`
	Payload    *ReviewPayload `json:"payload,omitempty" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子
func (r *ProblemReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (ProblemReview) TableName() string {
	return "problem_reviews"
}

// ReviewPayload 审核明细
type ReviewPayload struct {
	Issues            []string `json:"issues,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	Note              string   `json:"note,omitempty"`
}

// Value 实现 driver.Valuer
func (p *ReviewPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (p *ReviewPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported review payload type %T", value)
	}
}

// QueueStatus 审核队列条目状态
type QueueStatus string

const (
	QueueStatusPending  QueueStatus = "PENDING"
	QueueStatusInReview QueueStatus = "IN_REVIEW"
	QueueStatusApproved QueueStatus = "APPROVED"
	QueueStatusRejected QueueStatus = "REJECTED"
)

// Active 是否为非终态
func (s QueueStatus) Active() bool {
	return s == QueueStatusPending || s == QueueStatusInReview
}

// ActiveQueueStatuses 非终态集合
var ActiveQueueStatuses = []QueueStatus{QueueStatusPending, QueueStatusInReview}

// ReviewQueueEntry 审核队列条目
type ReviewQueueEntry struct {
	ID          string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProblemID   string      `json:"problem_id" gorm:"type:varchar(36);not null;index"`
	Status      QueueStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	ReviewType  ReviewStage `json:"review_type" gorm:"type:varchar(20)"`
	Priority    int         `json:"priority" gorm:"default:0;index"`
	AssigneeID  string      `json:"assignee_id,omitempty" gorm:"type:varchar(64);index"`
	Note        string      `json:"note,omitempty" gorm:"type:text"`
	AssignedAt  *time.Time  `json:"assigned_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (e *ReviewQueueEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = QueueStatusPending
	}
	return nil
}

// TableName 指定表名
func (ReviewQueueEntry) TableName() string {
	return "review_queue_entries"
}
