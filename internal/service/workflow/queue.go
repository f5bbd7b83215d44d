package workflow

import (
	"fmt"

	"github.com/ashwinyue/next-qbank/internal/model"
)

// AssignEntry 领取队列条目：PENDING → IN_REVIEW，IN_REVIEW 允许重复领取（是否同一审核员由调用方判断）
func AssignEntry(status model.QueueStatus) (model.QueueStatus, error) {
	switch status {
	case model.QueueStatusPending, model.QueueStatusInReview:
		return model.QueueStatusInReview, nil
	}
	return "", fmt.Errorf("%w: assign queue entry in status %s", ErrInvalidTransition, status)
}

// CompleteEntry 完成队列条目，返回条目终态以及需要同步到题目的事件
// NEEDS_REVISION 对条目而言是 REJECTED，题目退回草稿
func CompleteEntry(status model.QueueStatus, outcome model.ReviewOutcome) (model.QueueStatus, Event, error) {
	if status != model.QueueStatusInReview {
		return "", Event{}, fmt.Errorf("%w: complete queue entry in status %s", ErrInvalidTransition, status)
	}

	switch outcome {
	case model.ReviewOutcomeApproved:
		return model.QueueStatusApproved, ManualDecision(outcome), nil
	case model.ReviewOutcomeRejected, model.ReviewOutcomeNeedsRevision:
		return model.QueueStatusRejected, ManualDecision(outcome), nil
	}
	return "", Event{}, fmt.Errorf("%w: unknown review outcome %q", ErrInvalidTransition, outcome)
}
