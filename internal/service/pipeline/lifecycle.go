package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
	"github.com/ashwinyue/next-qbank/internal/service/workflow"
)

// 结构校验要求的最短题干
const minAutoContentRunes = 10

// Detail 写入审核记录的明细
type Detail struct {
	ReviewerID string
	// Confidence 0-1，记录分数为 Confidence × 100
	Confidence float64
	Payload    *model.ReviewPayload
}

// StageResult 一次状态推进的结果
type StageResult struct {
	Problem *model.Problem      `json:"problem"`
	From    workflow.State      `json:"from"`
	To      workflow.State      `json:"to"`
	Outcome model.ReviewOutcome `json:"outcome,omitempty"`
	Review  *reviewer.Result    `json:"review,omitempty"`
	Issues  []string            `json:"issues,omitempty"`
}

// ApplyEvent 在事务 tx 内推进题目状态并执行转移产生的副作用
// 调用方负责提交事务，提交后调用 Reindex
func (s *Service) ApplyEvent(ctx context.Context, tx *repository.Repositories, problemID string, ev workflow.Event, detail Detail) (*model.Problem, *workflow.Step, error) {
	p, err := getProblem(ctx, tx, problemID)
	if err != nil {
		return nil, nil, err
	}

	from, err := workflow.FromColumns(p.State())
	if err != nil {
		return nil, nil, err
	}
	step, err := workflow.Transition(from, ev)
	if err != nil {
		return nil, nil, err
	}

	ok, err := tx.Problem.UpdateState(ctx, p.ID, p.State(), step.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update problem state: %w", err)
	}
	if !ok {
		return nil, nil, ErrStateChanged
	}
	p.Status = step.Columns.Status
	p.ReviewStage = step.Columns.ReviewStage

	for _, effect := range step.Effects {
		switch effect.Kind {
		case workflow.EffectRecordReview:
			review := &model.ProblemReview{
				ProblemID:  p.ID,
				Stage:      effect.Stage,
				Outcome:    effect.Outcome,
				Score:      math.Round(detail.Confidence*10000) / 100,
				ReviewerID: detail.ReviewerID,
				Payload:    detail.Payload,
			}
			if err := tx.Review.Append(ctx, review); err != nil {
				return nil, nil, fmt.Errorf("failed to record review: %w", err)
			}

		case workflow.EffectEnqueue:
			entry := &model.ReviewQueueEntry{
				ProblemID:  p.ID,
				Status:     model.QueueStatusPending,
				ReviewType: effect.ReviewType,
				Priority:   effect.Priority,
				Note:       queueNote(detail.Payload),
			}
			if err := tx.Queue.CreateIfNoActive(ctx, entry); err != nil {
				return nil, nil, fmt.Errorf("failed to enqueue problem: %w", err)
			}

		case workflow.EffectRecomputeQuality:
			if _, err := s.recompute(ctx, tx, p); err != nil {
				return nil, nil, err
			}
		}
	}

	return p, step, nil
}

func queueNote(payload *model.ReviewPayload) string {
	if payload == nil || len(payload.Issues) == 0 {
		return ""
	}
	return strings.Join(payload.Issues, "; ")
}

// Reindex 同步检索索引，失败只记录日志
func (s *Service) Reindex(ctx context.Context, p *model.Problem) {
	if s.indexer == nil || p == nil {
		return
	}
	var err error
	if p.Status == model.ProblemStatusArchived {
		err = s.indexer.DeleteProblem(ctx, p.ID)
	} else {
		err = s.indexer.IndexProblem(ctx, p)
	}
	if err != nil {
		s.log.Warn("failed to sync problem index", "problem_id", p.ID, "error", err)
	}
}

func (s *Service) advance(ctx context.Context, id string, ev workflow.Event, detail Detail) (*StageResult, error) {
	var (
		p    *model.Problem
		step *workflow.Step
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		p, step, err = s.ApplyEvent(ctx, tx, id, ev, detail)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Reindex(ctx, p)
	s.log.Info("problem state advanced",
		"problem_id", p.ID,
		"event", ev.Kind,
		"from", step.From,
		"to", step.To)
	return &StageResult{Problem: p, From: step.From, To: step.To, Outcome: ev.Outcome}, nil
}

// Submit 提交草稿进入审核
func (s *Service) Submit(ctx context.Context, id string) (*StageResult, error) {
	return s.advance(ctx, id, workflow.Submit(), Detail{})
}

// Archive 归档已发布的题目
func (s *Service) Archive(ctx context.Context, id string) (*StageResult, error) {
	return s.advance(ctx, id, workflow.Archive(), Detail{})
}

// RunAutoValidation 结构校验（AUTO 阶段）
func (s *Service) RunAutoValidation(ctx context.Context, id string) (*StageResult, error) {
	p, err := getProblem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	issues := autoValidate(p)
	result, err := s.advance(ctx, id, workflow.AutoValidated(len(issues) == 0), Detail{
		Confidence: 1,
		Payload:    &model.ReviewPayload{Issues: issues, Note: "structural validation"},
	})
	if err != nil {
		return nil, err
	}
	result.Issues = issues
	return result, nil
}

// autoValidate 返回结构问题，空表示通过
func autoValidate(p *model.Problem) []string {
	var issues []string
	if utf8.RuneCountInString(strings.TrimSpace(p.Content)) < minAutoContentRunes {
		issues = append(issues, fmt.Sprintf("content shorter than %d characters", minAutoContentRunes))
	}
	if !p.Type.Valid() {
		issues = append(issues, fmt.Sprintf("unknown problem type %q", p.Type))
	}
	options, err := p.GetOptions()
	if err != nil {
		issues = append(issues, "options are not a valid JSON string array")
	} else if p.Type == model.ProblemTypeMultipleChoice && len(options) == 0 {
		issues = append(issues, "multiple choice problem has no options")
	}
	return issues
}

// RunAIReview 启发式审核（AI 阶段），通过或需修改的题目进入人工队列
func (s *Service) RunAIReview(ctx context.Context, id string) (*StageResult, error) {
	p, err := getProblem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	review := s.reviewer.Review(ctx, reviewer.InputFromProblem(p))
	result, err := s.advance(ctx, id, workflow.AIReviewed(review.RecommendedAction.Outcome()), Detail{
		Confidence: review.OverallConfidence,
		Payload: &model.ReviewPayload{
			Issues:            review.DetectedIssues,
			Warnings:          review.ReviewWarnings,
			RecommendedAction: string(review.RecommendedAction),
		},
	})
	if err != nil {
		return nil, err
	}
	result.Review = review
	return result, nil
}

// BatchItem 批量审核中单个题目的结果
type BatchItem struct {
	ProblemID string         `json:"problem_id"`
	From      workflow.State `json:"from"`
	To        workflow.State `json:"to,omitempty"`
	Action    string         `json:"action,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BatchResult 批量审核结果
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// ReviewPending 顺序处理待审核题目：先结构校验，通过后做启发式审核
// 单个题目的失败（包括 panic）只记录在该题目上
func (s *Service) ReviewPending(ctx context.Context, limit int) (*BatchResult, error) {
	if limit <= 0 || limit > s.cfg.BatchReviewLimit {
		limit = s.cfg.BatchReviewLimit
	}

	pending, err := s.repo.Problem.ListByState(ctx, workflow.StateAwaitingAuto.Project(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending problems: %w", err)
	}
	if remaining := limit - len(pending); remaining > 0 {
		awaitingAI, err := s.repo.Problem.ListByState(ctx, workflow.StateAwaitingAI.Project(), remaining)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending problems: %w", err)
		}
		pending = append(pending, awaitingAI...)
	}

	result := &BatchResult{Total: len(pending), Items: make([]BatchItem, 0, len(pending))}
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := s.reviewOne(ctx, p)
		if item.Error != "" {
			result.Failed++
			s.log.Warn("batch review item failed", "problem_id", p.ID, "error", item.Error)
		} else {
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}

	s.log.Info("batch review finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)
	return result, nil
}

func (s *Service) reviewOne(ctx context.Context, p *model.Problem) (item BatchItem) {
	item.ProblemID = p.ID
	defer func() {
		if r := recover(); r != nil {
			item.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	state, err := workflow.FromColumns(p.State())
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.From = state

	if state == workflow.StateAwaitingAuto {
		res, err := s.RunAutoValidation(ctx, p.ID)
		if err != nil {
			item.Error = err.Error()
			return item
		}
		item.To = res.To
		if res.To != workflow.StateAwaitingAI {
			return item
		}
	}

	res, err := s.RunAIReview(ctx, p.ID)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.To = res.To
	item.Action = string(res.Review.RecommendedAction)
	return item
}
