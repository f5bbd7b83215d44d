package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/testutil"
)

func newRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(testutil.NewDB(t))
}

// ========== 题目 ==========

func TestProblemRepository_CreateAndGet(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	p := testutil.NewProblem()
	p.Status = ""
	p.ReviewStage = ""
	require.NoError(t, repos.Problem.Create(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := repos.Problem.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProblemStatusDraft, got.Status)
	assert.Equal(t, model.ReviewStageNone, got.ReviewStage)

	options, err := got.GetOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "4", "5"}, options)

	_, err = repos.Problem.GetByID(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestProblemRepository_List(t *testing.T) {
	repos := newRepos(t)
	db := repos.DB
	ctx := context.Background()

	testutil.CreateProblem(t, db, testutil.WithContent("물의 화학식을 쓰시오."))
	testutil.CreateProblem(t, db, testutil.WithState(model.ProblemStatusPending, model.ReviewStageAuto))
	testutil.CreateProblem(t, db, testutil.WithState(model.ProblemStatusPending, model.ReviewStageAuto))

	all, total, err := repos.Problem.List(ctx, ProblemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.EqualValues(t, 3, total)

	pending, total, err := repos.Problem.List(ctx, ProblemFilter{Status: model.ProblemStatusPending, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.EqualValues(t, 2, total)

	byKeyword, _, err := repos.Problem.List(ctx, ProblemFilter{Keyword: "화학식"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
}

func TestProblemRepository_UpdateState(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	draft := model.ProblemState{Status: model.ProblemStatusDraft, ReviewStage: model.ReviewStageNone}
	pending := model.ProblemState{Status: model.ProblemStatusPending, ReviewStage: model.ReviewStageNone}

	ok, err := repos.Problem.UpdateState(ctx, p.ID, draft, pending)
	require.NoError(t, err)
	assert.True(t, ok)

	// 状态已变化，旧的 from 不再命中
	ok, err = repos.Problem.UpdateState(ctx, p.ID, draft, pending)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repos.Problem.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, pending, got.State())
}

func TestProblemRepository_UpdateScores(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	scores := model.QualityScores{AccuracyScore: 90, ClarityScore: 80, DifficultyFit: 70, TrustScore: 60, UsageScore: 30, OverallScore: 71.5}
	require.NoError(t, repos.Problem.UpdateScores(ctx, p.ID, scores, time.Now()))

	got, err := repos.Problem.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.AccuracyScore)
	assert.Equal(t, 60.0, got.TrustScore)
	assert.Equal(t, 71.5, got.QualityScore)
	assert.NotNil(t, got.ScoredAt)
	assert.Equal(t, p.Content, got.Content)
}

func TestProblemRepository_UpdateKeepsStateAndScores(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB, testutil.WithState(model.ProblemStatusPending, model.ReviewStageAI))
	require.NoError(t, repos.Problem.UpdateScores(ctx, p.ID, model.QualityScores{OverallScore: 55}, time.Now()))

	edit := *p
	edit.Content = "수정된 문제 본문입니다. 옳은 것을 고르시오."
	edit.Status = model.ProblemStatusApproved
	edit.QualityScore = 99
	require.NoError(t, repos.Problem.Update(ctx, &edit))

	got, err := repos.Problem.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, edit.Content, got.Content)
	assert.Equal(t, model.ProblemStatusPending, got.Status)
	assert.Equal(t, 55.0, got.QualityScore)
}

func TestProblemRepository_RecordUsage(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	got, err := repos.Problem.RecordUsage(ctx, p.ID, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, got.UsageCount)
	require.NotNil(t, got.CorrectRate)
	assert.InDelta(t, 0.5, *got.CorrectRate, 1e-9)

	got, err = repos.Problem.RecordUsage(ctx, p.ID, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, got.UsageCount)
	assert.InDelta(t, 0.75, *got.CorrectRate, 1e-9)

	_, err = repos.Problem.RecordUsage(ctx, p.ID, 1, 2)
	assert.Error(t, err)
}

func TestProblemRepository_FindInBatchesSkipsArchived(t *testing.T) {
	repos := newRepos(t)
	for i := 0; i < 5; i++ {
		testutil.CreateProblem(t, repos.DB)
	}
	testutil.CreateProblem(t, repos.DB, testutil.WithState(model.ProblemStatusArchived, model.ReviewStageManual))

	var seen, batches int
	err := repos.Problem.FindInBatches(context.Background(), 2, func(batch []*model.Problem) error {
		batches++
		seen += len(batch)
		for _, p := range batch {
			assert.NotEmpty(t, p.Content)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

func TestProblemRepository_FindInBatchesStopsOnError(t *testing.T) {
	repos := newRepos(t)
	for i := 0; i < 4; i++ {
		testutil.CreateProblem(t, repos.DB)
	}
	stop := errors.New("stop")

	calls := 0
	err := repos.Problem.FindInBatches(context.Background(), 1, func([]*model.Problem) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

// ========== 审核记录与队列 ==========

func TestReviewRepository_AppendAndList(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	require.NoError(t, repos.Review.Append(ctx, &model.ProblemReview{
		ProblemID: p.ID, Stage: model.ReviewStageAuto, Outcome: model.ReviewOutcomeApproved, Score: 100,
	}))
	require.NoError(t, repos.Review.Append(ctx, &model.ProblemReview{
		ProblemID: p.ID, Stage: model.ReviewStageAI, Outcome: model.ReviewOutcomeNeedsRevision, Score: 60,
		Payload: &model.ReviewPayload{Issues: []string{"짧음"}, RecommendedAction: "REVISE"},
	}))

	reviews, err := repos.Review.ListByProblem(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	for _, r := range reviews {
		if r.Stage == model.ReviewStageAI {
			require.NotNil(t, r.Payload)
			assert.Equal(t, []string{"짧음"}, r.Payload.Issues)
		}
	}
}

func TestQueueRepository_SingleActiveEntry(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	first := &model.ReviewQueueEntry{ProblemID: p.ID, ReviewType: model.ReviewStageManual}
	require.NoError(t, repos.Queue.CreateIfNoActive(ctx, first))
	assert.Equal(t, model.QueueStatusPending, first.Status)

	err := repos.Queue.CreateIfNoActive(ctx, &model.ReviewQueueEntry{ProblemID: p.ID})
	assert.ErrorIs(t, err, ErrActiveQueueEntryExists)

	// 条目结束后允许重新入队
	first.Status = model.QueueStatusApproved
	ok, err := repos.Queue.UpdateStatus(ctx, first, model.QueueStatusPending)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repos.Queue.CreateIfNoActive(ctx, &model.ReviewQueueEntry{ProblemID: p.ID}))

	active, err := repos.Queue.GetActiveByProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, active.ID)
}

func TestQueueRepository_ListOrdering(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	low := testutil.CreateProblem(t, repos.DB)
	high := testutil.CreateProblem(t, repos.DB)
	require.NoError(t, repos.Queue.CreateIfNoActive(ctx, &model.ReviewQueueEntry{ProblemID: low.ID, Priority: 0}))
	require.NoError(t, repos.Queue.CreateIfNoActive(ctx, &model.ReviewQueueEntry{ProblemID: high.ID, Priority: 10}))

	entries, total, err := repos.Queue.List(ctx, model.QueueStatusPending, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, high.ID, entries[0].ProblemID)
}

func TestQueueRepository_UpdateStatusConditional(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	entry := &model.ReviewQueueEntry{ProblemID: p.ID}
	require.NoError(t, repos.Queue.CreateIfNoActive(ctx, entry))

	now := time.Now()
	entry.Status = model.QueueStatusInReview
	entry.AssigneeID = "reviewer-1"
	entry.AssignedAt = &now
	ok, err := repos.Queue.UpdateStatus(ctx, entry, model.QueueStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Queue.UpdateStatus(ctx, entry, model.QueueStatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repos.Queue.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", got.AssigneeID)
	assert.Equal(t, model.QueueStatusInReview, got.Status)
}

func TestRepositories_TransactionRollback(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	p := testutil.CreateProblem(t, repos.DB)

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.Review.Append(ctx, &model.ProblemReview{ProblemID: p.ID, Stage: model.ReviewStageAI, Outcome: model.ReviewOutcomeApproved}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reviews, err := repos.Review.ListByProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

// ========== 来源 ==========

func TestSourceRepository(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	src := &model.Source{Name: "수능 기출"}
	require.NoError(t, repos.Source.Create(ctx, src))

	got, err := repos.Source.GetByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SourceGradeC, got.Grade)

	trust := 95.0
	got.TrustScore = &trust
	require.NoError(t, repos.Source.Update(ctx, got))

	list, err := repos.Source.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].TrustScore)
	assert.Equal(t, 95.0, *list[0].TrustScore)
}
