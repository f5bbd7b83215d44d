package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 原始文档处理状态
const (
	DocumentStatusStored = "stored"
	DocumentStatusParsed = "parsed"
	DocumentStatusFailed = "failed"
)

// SourceDocument 上传的原始文档
type SourceDocument struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	SourceID     string    `json:"source_id" gorm:"type:varchar(36);index"`
	FileName     string    `json:"file_name" gorm:"type:varchar(255)"`
	FileSize     int64     `json:"file_size"`
	ContentType  string    `json:"content_type" gorm:"type:varchar(100)"`
	Checksum     string    `json:"checksum" gorm:"type:varchar(64);index"` // sha256
	StorageType  string    `json:"storage_type" gorm:"type:varchar(20)"`   // local, minio
	FilePath     string    `json:"file_path" gorm:"type:varchar(500)"`     // 存储路径
	Status       string    `json:"status" gorm:"type:varchar(20);index"`
	ProblemCount int       `json:"problem_count" gorm:"default:0"`
	ErrorMsg     string    `json:"error_msg,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子
func (d *SourceDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (SourceDocument) TableName() string {
	return "source_documents"
}
