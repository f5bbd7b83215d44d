package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceGrade 来源信任等级
type SourceGrade string

const (
	SourceGradeA SourceGrade = "A"
	SourceGradeB SourceGrade = "B"
	SourceGradeC SourceGrade = "C"
	SourceGradeD SourceGrade = "D"
	SourceGradeE SourceGrade = "E"
)

// Valid 是否为已知等级
func (g SourceGrade) Valid() bool {
	switch g {
	case SourceGradeA, SourceGradeB, SourceGradeC, SourceGradeD, SourceGradeE:
		return true
	}
	return false
}

// Source 内容来源
type Source struct {
	ID          string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string      `json:"name" gorm:"type:varchar(255);not null"`
	URL         string      `json:"url" gorm:"type:varchar(500)"`
	Grade       SourceGrade `json:"grade" gorm:"type:varchar(1);default:'C'"`
	TrustScore  *float64    `json:"trust_score,omitempty"` // 显式覆盖等级映射
	Description string      `json:"description" gorm:"type:text"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Source) TableName() string {
	return "sources"
}
