// Package review 人工审核队列
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
	"github.com/ashwinyue/next-qbank/internal/service/workflow"
)

var (
	// ErrEntryNotFound 队列条目不存在
	ErrEntryNotFound = errors.New("review queue entry not found")
	// ErrQueueEntryClosed 条目已完成或被并发修改
	ErrQueueEntryClosed = errors.New("review queue entry is closed")
	// ErrNotAssignee 条目已分配给其他审核员
	ErrNotAssignee = errors.New("review queue entry is assigned to another reviewer")
	// ErrReviewerRequired 缺少审核员身份
	ErrReviewerRequired = errors.New("reviewer id is required")
)

// Transitioner 在事务内推进题目状态
type Transitioner interface {
	ApplyEvent(ctx context.Context, tx *repository.Repositories, problemID string, ev workflow.Event, detail pipeline.Detail) (*model.Problem, *workflow.Step, error)
	Reindex(ctx context.Context, p *model.Problem)
}

// ListFilter 队列查询条件
type ListFilter struct {
	Status     model.QueueStatus
	AssigneeID string
	Page       int
	PageSize   int
}

// CompleteRequest 完成审核请求
type CompleteRequest struct {
	ReviewerID string
	Outcome    model.ReviewOutcome
	Note       string
}

// CompleteResult 完成审核结果
type CompleteResult struct {
	Entry   *model.ReviewQueueEntry `json:"entry"`
	Problem *model.Problem          `json:"problem"`
	To      workflow.State          `json:"to"`
}

// Service 人工审核队列服务
type Service struct {
	repo         *repository.Repositories
	transitioner Transitioner
	log          *logger.Logger
	now          func() time.Time
}

// NewService 创建审核队列服务
func NewService(repo *repository.Repositories, transitioner Transitioner, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:         repo,
		transitioner: transitioner,
		log:          log,
		now:          time.Now,
	}
}

// List 查询队列，优先级高的在前
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*model.ReviewQueueEntry, int64, error) {
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.repo.Queue.List(ctx, filter.Status, filter.AssigneeID, (page-1)*size, size)
}

// Assign 审核员领取条目
func (s *Service) Assign(ctx context.Context, entryID, reviewerID string) (*model.ReviewQueueEntry, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, ErrReviewerRequired
	}

	entry, err := s.getEntry(ctx, s.repo, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.Active() {
		return nil, ErrQueueEntryClosed
	}
	// 审核中的条目只能由当前审核员重复领取
	if entry.Status == model.QueueStatusInReview && entry.AssigneeID != "" && entry.AssigneeID != reviewerID {
		return nil, ErrNotAssignee
	}

	from := entry.Status
	next, err := workflow.AssignEntry(from)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry.Status = next
	entry.AssigneeID = reviewerID
	entry.AssignedAt = &now

	ok, err := s.repo.Queue.UpdateStatus(ctx, entry, from)
	if err != nil {
		return nil, fmt.Errorf("failed to assign queue entry: %w", err)
	}
	if !ok {
		return nil, ErrQueueEntryClosed
	}

	s.log.Info("review queue entry assigned", "entry_id", entry.ID, "reviewer_id", reviewerID)
	return entry, nil
}

// Complete 提交人工审核结论，同时推进题目状态
func (s *Service) Complete(ctx context.Context, entryID string, req *CompleteRequest) (*CompleteResult, error) {
	reviewerID := strings.TrimSpace(req.ReviewerID)
	if reviewerID == "" {
		return nil, ErrReviewerRequired
	}

	var result *CompleteResult
	err := s.repo.Transaction(ctx, func(tx *repository.Repositories) error {
		entry, err := s.getEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if !entry.Status.Active() {
			return ErrQueueEntryClosed
		}
		if entry.AssigneeID != "" && entry.AssigneeID != reviewerID {
			return ErrNotAssignee
		}

		from := entry.Status
		next, ev, err := workflow.CompleteEntry(from, req.Outcome)
		if err != nil {
			return err
		}
		now := s.now()
		entry.Status = next
		entry.CompletedAt = &now
		if req.Note != "" {
			entry.Note = req.Note
		}

		ok, err := tx.Queue.UpdateStatus(ctx, entry, from)
		if err != nil {
			return fmt.Errorf("failed to complete queue entry: %w", err)
		}
		if !ok {
			return ErrQueueEntryClosed
		}

		problem, step, err := s.transitioner.ApplyEvent(ctx, tx, entry.ProblemID, ev, pipeline.Detail{
			ReviewerID: reviewerID,
			Confidence: 1,
			Payload:    &model.ReviewPayload{Note: req.Note},
		})
		if err != nil {
			return err
		}

		result = &CompleteResult{Entry: entry, Problem: problem, To: step.To}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.transitioner.Reindex(ctx, result.Problem)
	s.log.Info("review queue entry completed",
		"entry_id", result.Entry.ID,
		"problem_id", result.Problem.ID,
		"outcome", req.Outcome,
		"reviewer_id", reviewerID)
	return result, nil
}

func (s *Service) getEntry(ctx context.Context, repo *repository.Repositories, id string) (*model.ReviewQueueEntry, error) {
	entry, err := repo.Queue.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}
