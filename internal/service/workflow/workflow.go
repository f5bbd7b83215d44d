// Package workflow 题目审核流程状态机
//
// 持久化层保存 (status, review_stage) 两列，流程内部只使用单一的 State。
// Transition 根据事件计算下一状态、需要写入的两列以及需要调用方执行的副作用。
package workflow

import (
	"errors"
	"fmt"

	"github.com/ashwinyue/next-qbank/internal/model"
)

var (
	// ErrInvalidTransition 当前状态不接受该事件
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrInvalidState 持久化的两列组合不合法
	ErrInvalidState = errors.New("invalid problem state")
)

// State 题目在审核流程中的位置
type State string

const (
	StateDraft          State = "draft"
	StateAwaitingAuto   State = "awaiting_auto"
	StateAwaitingAI     State = "awaiting_ai"
	StateAwaitingManual State = "awaiting_manual"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
	StateArchived       State = "archived"
)

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s == StateRejected || s == StateArchived
}

// FromColumns 由持久化的两列推导状态
func FromColumns(ps model.ProblemState) (State, error) {
	switch ps.Status {
	case model.ProblemStatusDraft:
		if ps.ReviewStage == model.ReviewStageNone {
			return StateDraft, nil
		}
	case model.ProblemStatusPending:
		switch ps.ReviewStage {
		case model.ReviewStageNone:
			return StateAwaitingAuto, nil
		case model.ReviewStageAuto:
			return StateAwaitingAI, nil
		case model.ReviewStageAI:
			return StateAwaitingManual, nil
		}
	case model.ProblemStatusApproved:
		if ps.ReviewStage == model.ReviewStageManual {
			return StateApproved, nil
		}
	case model.ProblemStatusRejected:
		return StateRejected, nil
	case model.ProblemStatusArchived:
		return StateArchived, nil
	}
	return "", fmt.Errorf("%w: status=%s stage=%s", ErrInvalidState, ps.Status, ps.ReviewStage)
}

// Project 状态对应的默认列值
// 被拒绝的题目可能停留在 NONE 或 MANUAL 阶段，具体取值由 Step.Columns 给出
func (s State) Project() model.ProblemState {
	switch s {
	case StateDraft:
		return model.ProblemState{Status: model.ProblemStatusDraft, ReviewStage: model.ReviewStageNone}
	case StateAwaitingAuto:
		return model.ProblemState{Status: model.ProblemStatusPending, ReviewStage: model.ReviewStageNone}
	case StateAwaitingAI:
		return model.ProblemState{Status: model.ProblemStatusPending, ReviewStage: model.ReviewStageAuto}
	case StateAwaitingManual:
		return model.ProblemState{Status: model.ProblemStatusPending, ReviewStage: model.ReviewStageAI}
	case StateApproved:
		return model.ProblemState{Status: model.ProblemStatusApproved, ReviewStage: model.ReviewStageManual}
	case StateRejected:
		return model.ProblemState{Status: model.ProblemStatusRejected, ReviewStage: model.ReviewStageNone}
	case StateArchived:
		return model.ProblemState{Status: model.ProblemStatusArchived, ReviewStage: model.ReviewStageManual}
	}
	return model.ProblemState{}
}

// EventKind 事件类型
type EventKind string

const (
	EventSubmit         EventKind = "submit"
	EventAutoValidated  EventKind = "auto_validated"
	EventAIReviewed     EventKind = "ai_reviewed"
	EventManualDecision EventKind = "manual_decision"
	EventArchive        EventKind = "archive"
)

// Event 流程事件
type Event struct {
	Kind    EventKind
	Outcome model.ReviewOutcome
}

// Submit 提交审核
func Submit() Event { return Event{Kind: EventSubmit} }

// Archive 归档
func Archive() Event { return Event{Kind: EventArchive} }

// AutoValidated 自动校验完成
func AutoValidated(passed bool) Event {
	outcome := model.ReviewOutcomeRejected
	if passed {
		outcome = model.ReviewOutcomeApproved
	}
	return Event{Kind: EventAutoValidated, Outcome: outcome}
}

// AIReviewed 启发式审核完成
func AIReviewed(outcome model.ReviewOutcome) Event {
	return Event{Kind: EventAIReviewed, Outcome: outcome}
}

// ManualDecision 人工审核结论
func ManualDecision(outcome model.ReviewOutcome) Event {
	return Event{Kind: EventManualDecision, Outcome: outcome}
}

// EffectKind 副作用类型
type EffectKind string

const (
	EffectRecordReview     EffectKind = "record_review"
	EffectEnqueue          EffectKind = "enqueue"
	EffectRecomputeQuality EffectKind = "recompute_quality"
)

// Effect 需要调用方执行的副作用
type Effect struct {
	Kind EffectKind
	// RecordReview 使用
	Stage   model.ReviewStage
	Outcome model.ReviewOutcome
	// Enqueue 使用
	ReviewType model.ReviewStage
	Priority   int
}

// Step 一次状态转移的结果
type Step struct {
	From    State
	To      State
	Event   Event
	Columns model.ProblemState
	Effects []Effect
}

// HasEffect 是否包含某类副作用
func (s *Step) HasEffect(kind EffectKind) bool {
	for _, e := range s.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// 入队优先级：需要修改的题目优先处理
const (
	PriorityNormal = 0
	PriorityRevise = 10
)

// Transition 计算状态转移
func Transition(from State, ev Event) (*Step, error) {
	step := &Step{From: from, Event: ev}

	switch {
	case from == StateDraft && ev.Kind == EventSubmit:
		step.To = StateAwaitingAuto

	case from == StateAwaitingAuto && ev.Kind == EventAutoValidated:
		switch ev.Outcome {
		case model.ReviewOutcomeApproved:
			step.To = StateAwaitingAI
		case model.ReviewOutcomeRejected:
			step.To = StateRejected
		default:
			return nil, invalid(from, ev)
		}
		step.Effects = append(step.Effects, record(model.ReviewStageAuto, ev.Outcome))

	case from == StateAwaitingAI && ev.Kind == EventAIReviewed:
		switch ev.Outcome {
		case model.ReviewOutcomeApproved, model.ReviewOutcomeNeedsRevision:
			step.To = StateAwaitingManual
			priority := PriorityNormal
			if ev.Outcome == model.ReviewOutcomeNeedsRevision {
				priority = PriorityRevise
			}
			step.Effects = append(step.Effects,
				record(model.ReviewStageAI, ev.Outcome),
				Effect{Kind: EffectEnqueue, ReviewType: model.ReviewStageManual, Priority: priority},
			)
		case model.ReviewOutcomeRejected:
			step.To = StateRejected
			step.Effects = append(step.Effects, record(model.ReviewStageAI, ev.Outcome))
		default:
			return nil, invalid(from, ev)
		}

	case from == StateAwaitingManual && ev.Kind == EventManualDecision:
		switch ev.Outcome {
		case model.ReviewOutcomeApproved:
			step.To = StateApproved
			step.Effects = append(step.Effects,
				record(model.ReviewStageManual, ev.Outcome),
				Effect{Kind: EffectRecomputeQuality},
			)
		case model.ReviewOutcomeRejected:
			step.To = StateRejected
			step.Columns = model.ProblemState{Status: model.ProblemStatusRejected, ReviewStage: model.ReviewStageManual}
			step.Effects = append(step.Effects, record(model.ReviewStageManual, ev.Outcome))
		case model.ReviewOutcomeNeedsRevision:
			step.To = StateDraft
			step.Effects = append(step.Effects, record(model.ReviewStageManual, ev.Outcome))
		default:
			return nil, invalid(from, ev)
		}

	case from == StateApproved && ev.Kind == EventArchive:
		step.To = StateArchived

	default:
		return nil, invalid(from, ev)
	}

	if step.Columns == (model.ProblemState{}) {
		step.Columns = step.To.Project()
	}
	return step, nil
}

func record(stage model.ReviewStage, outcome model.ReviewOutcome) Effect {
	return Effect{Kind: EffectRecordReview, Stage: stage, Outcome: outcome}
}

func invalid(from State, ev Event) error {
	if ev.Outcome != "" {
		return fmt.Errorf("%w: %s(%s) in state %s", ErrInvalidTransition, ev.Kind, ev.Outcome, from)
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev.Kind, from)
}
