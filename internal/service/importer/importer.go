// Package importer 批量导入已结构化的题目 JSON
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/repository"
)

var (
	// ErrEmptyPayload 没有可导入的记录
	ErrEmptyPayload = errors.New("no problems in payload")
	// ErrInvalidPayload 载荷无法解析
	ErrInvalidPayload = errors.New("invalid import payload")
)

// Record 单条导入记录
// options 可以是字符串数组，也可以是 JSON 字符串（允许轻微格式错误）
type Record struct {
	Content     string          `json:"content"`
	Type        string          `json:"type"`
	Options     json.RawMessage `json:"options"`
	Answer      string          `json:"answer"`
	Explanation string          `json:"explanation"`
	GradeLevel  int             `json:"grade_level"`
	Difficulty  string          `json:"difficulty"`
	SubjectID   string          `json:"subject_id"`
	SourceID    string          `json:"source_id"`
}

// ItemError 单条记录的错误
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Result 导入结果
type Result struct {
	Imported []string    `json:"imported"`
	Repaired int         `json:"repaired"` // 经过 JSON 修复的记录数
	Errors   []ItemError `json:"errors"`
}

// Service 导入服务
type Service struct {
	repo *repository.Repositories
	log  *logger.Logger
}

// NewService 创建导入服务
func NewService(repo *repository.Repositories, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ParseRecords 解析导入载荷，支持数组或 {"problems": [...]}，格式错误时尝试修复
func ParseRecords(data []byte) ([]Record, bool, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, false, ErrEmptyPayload
	}
	repaired := false
	if !json.Valid([]byte(text)) {
		fixed, err := jsonrepair.JSONRepair(text)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		text, repaired = fixed, true
	}

	var records []Record
	if strings.HasPrefix(text, "{") {
		var wrapper struct {
			Problems []Record `json:"problems"`
		}
		if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
			return nil, repaired, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		records = wrapper.Problems
	} else if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, repaired, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if len(records) == 0 {
		return nil, repaired, ErrEmptyPayload
	}
	return records, repaired, nil
}

// NormalizeOptions 把记录中的选项统一为字符串数组
// 返回的 bool 表示是否经过修复
func NormalizeOptions(raw json.RawMessage) ([]string, bool, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, false, nil
	}

	var options []string
	if err := json.Unmarshal([]byte(text), &options); err == nil {
		return trimOptions(options), false, nil
	}

	// 以字符串形式给出的选项 JSON
	var encoded string
	if err := json.Unmarshal([]byte(text), &encoded); err == nil {
		text = strings.TrimSpace(encoded)
		if text == "" {
			return nil, false, nil
		}
		if err := json.Unmarshal([]byte(text), &options); err == nil {
			return trimOptions(options), false, nil
		}
	}

	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, false, fmt.Errorf("malformed options: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &options); err != nil {
		return nil, false, fmt.Errorf("malformed options: %w", err)
	}
	return trimOptions(options), true, nil
}

// Import 导入题目，逐条校验，失败的记录不影响其他记录
// 所有题目以 DRAFT 状态写入
func (s *Service) Import(ctx context.Context, data []byte, defaultSourceID string) (*Result, error) {
	records, repaired, err := ParseRecords(data)
	if err != nil {
		return nil, err
	}

	result := &Result{Imported: make([]string, 0, len(records)), Errors: make([]ItemError, 0)}
	if repaired {
		result.Repaired = len(records)
	}

	for i, rec := range records {
		problem, fixed, err := toProblem(rec, defaultSourceID)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Message: err.Error()})
			continue
		}
		if fixed && !repaired {
			result.Repaired++
		}
		if err := s.repo.Problem.Create(ctx, problem); err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Message: fmt.Sprintf("failed to save problem: %v", err)})
			continue
		}
		result.Imported = append(result.Imported, problem.ID)
	}

	s.log.Info("bulk import finished",
		"records", len(records),
		"imported", len(result.Imported),
		"failed", len(result.Errors),
		"repaired", result.Repaired)
	return result, nil
}

func toProblem(rec Record, defaultSourceID string) (*model.Problem, bool, error) {
	content := strings.TrimSpace(rec.Content)
	if content == "" {
		return nil, false, errors.New("content is required")
	}

	options, fixed, err := NormalizeOptions(rec.Options)
	if err != nil {
		return nil, false, err
	}

	problemType := model.ProblemType(strings.ToUpper(strings.TrimSpace(rec.Type)))
	switch {
	case problemType == "" && len(options) >= 2:
		problemType = model.ProblemTypeMultipleChoice
	case problemType == "":
		problemType = model.ProblemTypeShortAnswer
	case !problemType.Valid():
		return nil, false, fmt.Errorf("unknown problem type %q", rec.Type)
	}

	tier := model.DifficultyTier(strings.ToUpper(strings.TrimSpace(rec.Difficulty)))
	switch tier {
	case "", model.DifficultyLow, model.DifficultyMedium, model.DifficultyHigh:
	default:
		return nil, false, fmt.Errorf("unknown difficulty %q", rec.Difficulty)
	}

	sourceID := rec.SourceID
	if sourceID == "" {
		sourceID = defaultSourceID
	}

	p := &model.Problem{
		Content:     content,
		Type:        problemType,
		Answer:      strings.TrimSpace(rec.Answer),
		Explanation: strings.TrimSpace(rec.Explanation),
		GradeLevel:  rec.GradeLevel,
		SubjectID:   rec.SubjectID,
		Difficulty:  tier,
		SourceID:    sourceID,
		Status:      model.ProblemStatusDraft,
		ReviewStage: model.ReviewStageNone,
	}
	if err := p.SetOptions(options); err != nil {
		return nil, false, err
	}
	return p, fixed, nil
}

func trimOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	return out
}
