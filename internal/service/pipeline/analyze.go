package pipeline

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/service/cache"
	"github.com/ashwinyue/next-qbank/internal/service/classifier"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
	"github.com/ashwinyue/next-qbank/internal/service/difficulty"
	"github.com/ashwinyue/next-qbank/internal/service/extract"
	"github.com/ashwinyue/next-qbank/internal/service/quality"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
	"github.com/ashwinyue/next-qbank/internal/service/segmenter"
)

// ExtractResult 文档提取 + 切分结果
// 提取失败时 Parse 为 nil，Extraction.Error 说明原因
type ExtractResult struct {
	Extraction *extract.Result        `json:"extraction"`
	Parse      *segmenter.ParseResult `json:"parse,omitempty"`
}

// ClassifyInput 分类输入
type ClassifyInput struct {
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	GradeLevel int      `json:"grade_level"`
	// ExcludeID 重复检测时排除的题目（通常是题目自身）
	ExcludeID string `json:"exclude_id"`
	// SkipDuplicates 跳过重复检测
	SkipDuplicates bool `json:"skip_duplicates"`
}

// Classification 分类结果
type Classification struct {
	SuggestedSubject     string               `json:"suggested_subject"`
	SubjectConfidence    float64              `json:"subject_confidence"`
	SuggestedDifficulty  model.DifficultyTier `json:"suggested_difficulty"`
	DifficultyLevel      difficulty.Level     `json:"difficulty_level"`
	DifficultyScore      float64              `json:"difficulty_score"`
	DifficultyConfidence float64              `json:"difficulty_confidence"`
	Keywords             []string             `json:"keywords"`
	Duplicates           []dedup.Match        `json:"duplicates"`
	Cached               bool                 `json:"cached"`
}

// analysis 可缓存的纯文本分析结果
type analysis struct {
	Subject    *classifier.Result `json:"subject"`
	Difficulty *difficulty.Result `json:"difficulty"`
}

// Parse 切分原始文本
func (s *Service) Parse(text string) *segmenter.ParseResult {
	return s.segmenter.Parse(text)
}

// Extract 提取文档文本并切分
func (s *Service) Extract(ctx context.Context, r io.Reader, mimeType string) *ExtractResult {
	extraction := s.extractor.Extract(ctx, r, mimeType)
	if extraction.Error != "" {
		return &ExtractResult{Extraction: extraction}
	}
	return &ExtractResult{Extraction: extraction, Parse: s.segmenter.Parse(extraction.Text)}
}

// Classify 学科分类、难度估算与重复检测并行执行
func (s *Service) Classify(ctx context.Context, in ClassifyInput) (*Classification, error) {
	var (
		result     analysis
		cached     bool
		duplicates []dedup.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, cached = s.analyze(gctx, in)
		return nil
	})
	if !in.SkipDuplicates {
		g.Go(func() error {
			matches, err := s.detector.Scan(gctx, in.Content, in.ExcludeID, s.corpus)
			if err != nil {
				return fmt.Errorf("duplicate scan failed: %w", err)
			}
			duplicates = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if duplicates == nil {
		duplicates = []dedup.Match{}
	}
	return &Classification{
		SuggestedSubject:     result.Subject.Subject,
		SubjectConfidence:    result.Subject.Confidence,
		SuggestedDifficulty:  result.Difficulty.Level.Tier(),
		DifficultyLevel:      result.Difficulty.Level,
		DifficultyScore:      result.Difficulty.Score,
		DifficultyConfidence: result.Difficulty.Confidence,
		Keywords:             result.Subject.Keywords,
		Duplicates:           duplicates,
		Cached:               cached,
	}, nil
}

func (s *Service) analyze(ctx context.Context, in ClassifyInput) (analysis, bool) {
	key := cache.Key("classify", analysisKey{Content: in.Content, Options: in.Options, GradeLevel: in.GradeLevel})

	var result analysis
	if s.cache.Get(ctx, key, &result) && result.Subject != nil && result.Difficulty != nil {
		return result, true
	}

	result = analysis{
		Subject: s.classifier.Classify(in.Content),
		Difficulty: s.estimator.Estimate(difficulty.Input{
			Content:    in.Content,
			Options:    in.Options,
			GradeLevel: in.GradeLevel,
		}),
	}
	s.cache.Set(ctx, key, result)
	return result, false
}

// analysisKey 难度依赖选项和年级，一并计入缓存键
type analysisKey struct {
	Content    string   `json:"content"`
	Options    []string `json:"options"`
	GradeLevel int      `json:"grade_level"`
}

// Difficulty 估算难度
func (s *Service) Difficulty(in difficulty.Input) *difficulty.Result {
	return s.estimator.Estimate(in)
}

// Review 启发式审核
func (s *Service) Review(ctx context.Context, in *reviewer.Input) *reviewer.Result {
	return s.reviewer.Review(ctx, in)
}

// Score 计算质量分
func (s *Service) Score(in *quality.Input) model.QualityScores {
	return s.scorer.Score(in)
}
