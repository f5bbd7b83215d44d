package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
	"github.com/ashwinyue/next-qbank/internal/service/file"
	"github.com/ashwinyue/next-qbank/internal/service/quality"
	"github.com/ashwinyue/next-qbank/internal/service/segmenter"
	"github.com/ashwinyue/next-qbank/internal/service/workflow"
)

// ImportedProblem 从文档导入的题目
type ImportedProblem struct {
	Problem    *model.Problem `json:"problem"`
	Duplicates []dedup.Match  `json:"duplicates,omitempty"`
}

// ImportResult 文档导入结果
type ImportResult struct {
	Document *model.SourceDocument `json:"document"`
	Problems []ImportedProblem     `json:"problems"`
	Errors   []string              `json:"errors"`
}

// ImportDocument 保存原始文档，提取并切分后写入草稿题目
// 不支持的文档类型不返回 error，原因记录在 Errors 和文档状态中
func (s *Service) ImportDocument(ctx context.Context, req *file.SaveDocumentRequest, gradeLevel int) (*ImportResult, error) {
	if s.documents == nil {
		return nil, ErrDocumentsDisabled
	}

	doc, err := s.documents.SaveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Document: doc, Problems: make([]ImportedProblem, 0), Errors: make([]string, 0)}

	_, reader, err := s.documents.OpenDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	extracted := s.Extract(ctx, reader, req.ContentType)
	_ = reader.Close()

	if extracted.Parse == nil {
		result.Errors = append(result.Errors, extracted.Extraction.Error)
		return result, s.finishDocument(ctx, doc, 0, extracted.Extraction.Error)
	}
	result.Errors = append(result.Errors, extracted.Parse.Errors...)

	problems := make([]*model.Problem, 0, len(extracted.Parse.Problems))
	// 同一文档内已接受的题目，写库前也参与重复检测
	accepted := make(dedup.SliceCorpus, 0, len(extracted.Parse.Problems))
	for _, candidate := range extracted.Parse.Problems {
		p, err := s.problemFromCandidate(candidate, req.SourceID, doc.ID, gradeLevel)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("problem %d: %v", candidate.Index, err))
			continue
		}
		p.ID = uuid.New().String()

		cls, err := s.Classify(ctx, ClassifyInput{Content: p.Content, Options: candidate.Options, GradeLevel: gradeLevel})
		if err != nil {
			_ = s.finishDocument(ctx, doc, 0, err.Error())
			return nil, err
		}
		p.SubjectID = cls.SuggestedSubject
		p.Difficulty = cls.SuggestedDifficulty

		inDocument, err := s.detector.FindDuplicates(ctx, p.Content, p.ID, accepted)
		if err != nil {
			_ = s.finishDocument(ctx, doc, 0, err.Error())
			return nil, err
		}

		problems = append(problems, p)
		accepted = append(accepted, dedup.Entry{ID: p.ID, Content: p.Content})
		result.Problems = append(result.Problems, ImportedProblem{
			Problem:    p,
			Duplicates: dedup.MergeMatches(cls.Duplicates, inDocument),
		})
	}

	if err := s.repo.Problem.CreateBatch(ctx, problems); err != nil {
		_ = s.finishDocument(ctx, doc, 0, err.Error())
		return nil, fmt.Errorf("failed to save problems: %w", err)
	}
	for _, p := range problems {
		s.Reindex(ctx, p)
	}

	var parseErr string
	if len(problems) == 0 {
		parseErr = "no problems found in document"
	}
	if err := s.finishDocument(ctx, doc, len(problems), parseErr); err != nil {
		return nil, err
	}

	s.log.Info("document imported",
		"document_id", doc.ID,
		"problems", len(problems),
		"errors", len(result.Errors))
	return result, nil
}

func (s *Service) finishDocument(ctx context.Context, doc *model.SourceDocument, count int, parseErr string) error {
	if err := s.documents.MarkProcessed(ctx, doc.ID, count, parseErr); err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	doc.ProblemCount = count
	doc.ErrorMsg = parseErr
	doc.Status = model.DocumentStatusParsed
	if parseErr != "" {
		doc.Status = model.DocumentStatusFailed
	}
	return nil
}

func (s *Service) problemFromCandidate(c *segmenter.CandidateProblem, sourceID, documentID string, gradeLevel int) (*model.Problem, error) {
	p := &model.Problem{
		Content:     c.Content,
		Type:        c.Type,
		Answer:      c.Answer,
		Explanation: c.Explanation,
		GradeLevel:  gradeLevel,
		SourceID:    sourceID,
		DocumentID:  documentID,
		Status:      model.ProblemStatusDraft,
		ReviewStage: model.ReviewStageNone,
	}
	if err := p.SetOptions(c.Options); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProblemRequest 编辑草稿，nil 字段保持不变
type UpdateProblemRequest struct {
	Content     *string               `json:"content"`
	Type        *model.ProblemType    `json:"type"`
	Options     []string              `json:"options"`
	Answer      *string               `json:"answer"`
	Explanation *string               `json:"explanation"`
	GradeLevel  *int                  `json:"grade_level"`
	SubjectID   *string               `json:"subject_id"`
	Difficulty  *model.DifficultyTier `json:"difficulty"`
	SourceID    *string               `json:"source_id"`
}

// UpdateProblem 编辑草稿题目
func (s *Service) UpdateProblem(ctx context.Context, id string, req *UpdateProblemRequest) (*model.Problem, error) {
	p, err := getProblem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if state, err := workflow.FromColumns(p.State()); err != nil || state != workflow.StateDraft {
		return nil, ErrNotEditable
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
		}
		p.Content = content
		p.ContentHash = model.HashContent(content)
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown problem type %q", ErrInvalidInput, *req.Type)
		}
		p.Type = *req.Type
	}
	if req.Options != nil {
		if err := p.SetOptions(req.Options); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if req.Answer != nil {
		p.Answer = strings.TrimSpace(*req.Answer)
	}
	if req.Explanation != nil {
		p.Explanation = strings.TrimSpace(*req.Explanation)
	}
	if req.GradeLevel != nil {
		p.GradeLevel = *req.GradeLevel
	}
	if req.SubjectID != nil {
		p.SubjectID = *req.SubjectID
	}
	if req.Difficulty != nil {
		switch *req.Difficulty {
		case "", model.DifficultyLow, model.DifficultyMedium, model.DifficultyHigh:
			p.Difficulty = *req.Difficulty
		default:
			return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, *req.Difficulty)
		}
	}
	if req.SourceID != nil {
		p.SourceID = *req.SourceID
	}

	if err := s.repo.Problem.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update problem: %w", err)
	}
	s.Reindex(ctx, p)
	return p, nil
}

// DeleteProblem 删除草稿题目，审核记录保留
func (s *Service) DeleteProblem(ctx context.Context, id string) error {
	p, err := getProblem(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if state, err := workflow.FromColumns(p.State()); err != nil || state != workflow.StateDraft {
		return ErrNotEditable
	}

	if err := s.repo.Problem.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteProblem(ctx, id); err != nil {
			s.log.Warn("failed to remove problem from index", "problem_id", id, "error", err)
		}
	}
	return nil
}

// recompute 重新计算并整体写入评分
func (s *Service) recompute(ctx context.Context, repo *repository.Repositories, p *model.Problem) (model.QualityScores, error) {
	src, err := sourceOf(ctx, repo, p)
	if err != nil {
		return model.QualityScores{}, fmt.Errorf("failed to load source: %w", err)
	}

	scores := s.scorer.Score(quality.InputFromProblem(p, src))
	at := s.now()
	if err := repo.Problem.UpdateScores(ctx, p.ID, scores, at); err != nil {
		return model.QualityScores{}, fmt.Errorf("failed to save quality scores: %w", err)
	}
	p.ApplyScores(scores, at)
	return scores, nil
}

// RecomputeQuality 重新计算题目质量分
func (s *Service) RecomputeQuality(ctx context.Context, id string) (*model.Problem, model.QualityScores, error) {
	p, err := getProblem(ctx, s.repo, id)
	if err != nil {
		return nil, model.QualityScores{}, err
	}
	scores, err := s.recompute(ctx, s.repo, p)
	if err != nil {
		return nil, model.QualityScores{}, err
	}
	return p, scores, nil
}

// RecordUsage 记录作答统计并按使用情况重新评分
func (s *Service) RecordUsage(ctx context.Context, id string, attempts, correct int) (*model.Problem, model.QualityScores, error) {
	if attempts <= 0 || correct < 0 || correct > attempts {
		return nil, model.QualityScores{}, fmt.Errorf("%w: need attempts > 0 and 0 <= correct <= attempts", ErrInvalidInput)
	}

	p, err := s.repo.Problem.RecordUsage(ctx, id, attempts, correct)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, model.QualityScores{}, ErrProblemNotFound
		}
		return nil, model.QualityScores{}, fmt.Errorf("failed to record usage: %w", err)
	}

	scores, err := s.recompute(ctx, s.repo, p)
	if err != nil {
		return nil, model.QualityScores{}, err
	}
	return p, scores, nil
}
