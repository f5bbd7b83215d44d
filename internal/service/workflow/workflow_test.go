package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/model"
)

func cols(status model.ProblemStatus, stage model.ReviewStage) model.ProblemState {
	return model.ProblemState{Status: status, ReviewStage: stage}
}

// ========== 状态映射 ==========

func TestFromColumns(t *testing.T) {
	tests := []struct {
		in   model.ProblemState
		want State
	}{
		{cols(model.ProblemStatusDraft, model.ReviewStageNone), StateDraft},
		{cols(model.ProblemStatusPending, model.ReviewStageNone), StateAwaitingAuto},
		{cols(model.ProblemStatusPending, model.ReviewStageAuto), StateAwaitingAI},
		{cols(model.ProblemStatusPending, model.ReviewStageAI), StateAwaitingManual},
		{cols(model.ProblemStatusApproved, model.ReviewStageManual), StateApproved},
		{cols(model.ProblemStatusRejected, model.ReviewStageNone), StateRejected},
		{cols(model.ProblemStatusRejected, model.ReviewStageManual), StateRejected},
		{cols(model.ProblemStatusArchived, model.ReviewStageManual), StateArchived},
	}
	for _, tt := range tests {
		got, err := FromColumns(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFromColumns_Invalid(t *testing.T) {
	invalid := []model.ProblemState{
		cols(model.ProblemStatusApproved, model.ReviewStageNone),
		cols(model.ProblemStatusDraft, model.ReviewStageAI),
		cols(model.ProblemStatusPending, model.ReviewStageManual),
		cols("PUBLISHED", model.ReviewStageNone),
	}
	for _, ps := range invalid {
		_, err := FromColumns(ps)
		assert.ErrorIs(t, err, ErrInvalidState, "%+v", ps)
	}
}

func TestProject_RoundTrip(t *testing.T) {
	for _, s := range []State{StateDraft, StateAwaitingAuto, StateAwaitingAI, StateAwaitingManual, StateApproved, StateRejected, StateArchived} {
		got, err := FromColumns(s.Project())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

// ========== 状态转移 ==========

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		event   Event
		to      State
		columns model.ProblemState
		effects []EffectKind
	}{
		{"submit", StateDraft, Submit(), StateAwaitingAuto, cols(model.ProblemStatusPending, model.ReviewStageNone), nil},
		{"auto pass", StateAwaitingAuto, AutoValidated(true), StateAwaitingAI, cols(model.ProblemStatusPending, model.ReviewStageAuto), []EffectKind{EffectRecordReview}},
		{"auto fail", StateAwaitingAuto, AutoValidated(false), StateRejected, cols(model.ProblemStatusRejected, model.ReviewStageNone), []EffectKind{EffectRecordReview}},
		{"ai approve", StateAwaitingAI, AIReviewed(model.ReviewOutcomeApproved), StateAwaitingManual, cols(model.ProblemStatusPending, model.ReviewStageAI), []EffectKind{EffectRecordReview, EffectEnqueue}},
		{"ai revise", StateAwaitingAI, AIReviewed(model.ReviewOutcomeNeedsRevision), StateAwaitingManual, cols(model.ProblemStatusPending, model.ReviewStageAI), []EffectKind{EffectRecordReview, EffectEnqueue}},
		{"ai reject", StateAwaitingAI, AIReviewed(model.ReviewOutcomeRejected), StateRejected, cols(model.ProblemStatusRejected, model.ReviewStageNone), []EffectKind{EffectRecordReview}},
		{"manual approve", StateAwaitingManual, ManualDecision(model.ReviewOutcomeApproved), StateApproved, cols(model.ProblemStatusApproved, model.ReviewStageManual), []EffectKind{EffectRecordReview, EffectRecomputeQuality}},
		{"manual reject", StateAwaitingManual, ManualDecision(model.ReviewOutcomeRejected), StateRejected, cols(model.ProblemStatusRejected, model.ReviewStageManual), []EffectKind{EffectRecordReview}},
		{"manual revise", StateAwaitingManual, ManualDecision(model.ReviewOutcomeNeedsRevision), StateDraft, cols(model.ProblemStatusDraft, model.ReviewStageNone), []EffectKind{EffectRecordReview}},
		{"archive", StateApproved, Archive(), StateArchived, cols(model.ProblemStatusArchived, model.ReviewStageManual), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := Transition(tt.from, tt.event)
			require.NoError(t, err)

			assert.Equal(t, tt.from, step.From)
			assert.Equal(t, tt.to, step.To)
			assert.Equal(t, tt.columns, step.Columns)

			var kinds []EffectKind
			for _, e := range step.Effects {
				kinds = append(kinds, e.Kind)
			}
			assert.Equal(t, tt.effects, kinds)

			// 转移结果始终是合法的列组合
			back, err := FromColumns(step.Columns)
			require.NoError(t, err)
			assert.Equal(t, tt.to, back)
		})
	}
}

func TestTransition_RecordEffects(t *testing.T) {
	step, err := Transition(StateAwaitingAuto, AutoValidated(false))
	require.NoError(t, err)
	assert.Equal(t, Effect{Kind: EffectRecordReview, Stage: model.ReviewStageAuto, Outcome: model.ReviewOutcomeRejected}, step.Effects[0])

	step, err = Transition(StateAwaitingManual, ManualDecision(model.ReviewOutcomeApproved))
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStageManual, step.Effects[0].Stage)
	assert.True(t, step.HasEffect(EffectRecomputeQuality))
	assert.False(t, step.HasEffect(EffectEnqueue))
}

func TestTransition_EnqueuePriority(t *testing.T) {
	approve, err := Transition(StateAwaitingAI, AIReviewed(model.ReviewOutcomeApproved))
	require.NoError(t, err)
	revise, err := Transition(StateAwaitingAI, AIReviewed(model.ReviewOutcomeNeedsRevision))
	require.NoError(t, err)

	assert.Equal(t, PriorityNormal, approve.Effects[1].Priority)
	assert.Equal(t, PriorityRevise, revise.Effects[1].Priority)
	assert.Greater(t, revise.Effects[1].Priority, approve.Effects[1].Priority)
	assert.Equal(t, model.ReviewStageManual, revise.Effects[1].ReviewType)
}

func TestTransition_Invalid(t *testing.T) {
	tests := []struct {
		from  State
		event Event
	}{
		{StateDraft, AutoValidated(true)},
		{StateDraft, Archive()},
		{StateAwaitingAuto, Submit()},
		{StateAwaitingAI, ManualDecision(model.ReviewOutcomeApproved)},
		{StateAwaitingAI, AIReviewed("MAYBE")},
		{StateAwaitingManual, ManualDecision("")},
		{StateApproved, Submit()},
		{StateRejected, Submit()},
		{StateRejected, Archive()},
		{StateArchived, Archive()},
	}
	for _, tt := range tests {
		step, err := Transition(tt.from, tt.event)
		assert.Nil(t, step)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "%s + %s", tt.from, tt.event.Kind)
	}
}

// 人工审核前题目不可能进入 APPROVED
func TestTransition_NoApprovalWithoutManualStage(t *testing.T) {
	states := []State{StateDraft, StateAwaitingAuto, StateAwaitingAI, StateAwaitingManual, StateApproved, StateRejected, StateArchived}
	events := []Event{
		Submit(), Archive(), AutoValidated(true), AutoValidated(false),
		AIReviewed(model.ReviewOutcomeApproved), AIReviewed(model.ReviewOutcomeNeedsRevision), AIReviewed(model.ReviewOutcomeRejected),
		ManualDecision(model.ReviewOutcomeApproved), ManualDecision(model.ReviewOutcomeRejected), ManualDecision(model.ReviewOutcomeNeedsRevision),
	}
	for _, s := range states {
		for _, ev := range events {
			step, err := Transition(s, ev)
			if err != nil {
				continue
			}
			if step.Columns.Status == model.ProblemStatusApproved {
				assert.Equal(t, model.ReviewStageManual, step.Columns.ReviewStage)
				assert.Equal(t, EventManualDecision, ev.Kind)
			}
		}
	}
}

// ========== 审核队列 ==========

func TestAssignEntry(t *testing.T) {
	got, err := AssignEntry(model.QueueStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusInReview, got)

	got, err = AssignEntry(model.QueueStatusInReview)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusInReview, got)

	_, err = AssignEntry(model.QueueStatusApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteEntry(t *testing.T) {
	tests := []struct {
		outcome model.ReviewOutcome
		status  model.QueueStatus
	}{
		{model.ReviewOutcomeApproved, model.QueueStatusApproved},
		{model.ReviewOutcomeRejected, model.QueueStatusRejected},
		{model.ReviewOutcomeNeedsRevision, model.QueueStatusRejected},
	}
	for _, tt := range tests {
		status, ev, err := CompleteEntry(model.QueueStatusInReview, tt.outcome)
		require.NoError(t, err)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, ManualDecision(tt.outcome), ev)
	}

	_, _, err := CompleteEntry(model.QueueStatusPending, model.ReviewOutcomeApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = CompleteEntry(model.QueueStatusInReview, "MAYBE")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
