// Package pipeline 串联分析器与审核流程，负责持久化副作用
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/cache"
	"github.com/ashwinyue/next-qbank/internal/service/classifier"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
	"github.com/ashwinyue/next-qbank/internal/service/difficulty"
	"github.com/ashwinyue/next-qbank/internal/service/extract"
	"github.com/ashwinyue/next-qbank/internal/service/file"
	"github.com/ashwinyue/next-qbank/internal/service/quality"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
	"github.com/ashwinyue/next-qbank/internal/service/segmenter"
)

var (
	// ErrProblemNotFound 题目不存在
	ErrProblemNotFound = errors.New("problem not found")
	// ErrStateChanged 题目状态已被并发修改
	ErrStateChanged = errors.New("problem state changed concurrently")
	// ErrNotEditable 只有草稿可以编辑
	ErrNotEditable = errors.New("only draft problems can be edited")
	// ErrDocumentsDisabled 未配置原始文档存储
	ErrDocumentsDisabled = errors.New("document storage is not configured")
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("invalid input")
)

// Config 各分析器的配置，启动时构建一次
type Config struct {
	Segmenter        segmenter.Config
	Classifier       classifier.Config
	Difficulty       difficulty.Config
	Dedup            dedup.Config
	Reviewer         reviewer.Config
	Quality          quality.Config
	CorpusBatchSize  int
	BatchReviewLimit int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Segmenter:        segmenter.DefaultConfig(),
		Classifier:       classifier.DefaultConfig(),
		Difficulty:       difficulty.DefaultConfig(),
		Dedup:            dedup.DefaultConfig(),
		Reviewer:         reviewer.DefaultConfig(),
		Quality:          quality.DefaultConfig(),
		CorpusBatchSize:  500,
		BatchReviewLimit: 100,
	}
}

// ConfigFrom 用应用配置覆盖默认值
func ConfigFrom(pc *config.PipelineConfig) Config {
	cfg := DefaultConfig()
	if pc == nil {
		return cfg
	}
	if pc.DuplicateThreshold > 0 {
		cfg.Dedup.Threshold = pc.DuplicateThreshold
	}
	if pc.CorpusBatchSize > 0 {
		cfg.CorpusBatchSize = pc.CorpusBatchSize
	}
	if pc.BatchReviewLimit > 0 {
		cfg.BatchReviewLimit = pc.BatchReviewLimit
	}
	if !pc.QualityWeights.IsZero() {
		w := pc.QualityWeights
		cfg.Quality.Weights = quality.Weights{
			Accuracy:      w.Accuracy,
			Clarity:       w.Clarity,
			DifficultyFit: w.DifficultyFit,
			Trust:         w.Trust,
			Usage:         w.Usage,
		}
	}
	return cfg
}

// Indexer 题目检索索引
type Indexer interface {
	IndexProblem(ctx context.Context, p *model.Problem) error
	DeleteProblem(ctx context.Context, id string) error
}

// Deps 可选依赖，nil 表示未启用
type Deps struct {
	Documents *file.Service
	Cache     *cache.AnalysisCache
	// Corpus 为 nil 时对数据库做全量扫描
	Corpus   dedup.CorpusProvider
	Indexer  Indexer
	Verifier reviewer.Verifier
}

// Service 内容质量流水线
type Service struct {
	repo *repository.Repositories
	cfg  Config
	log  *logger.Logger

	segmenter  *segmenter.Segmenter
	extractor  *extract.Extractor
	classifier *classifier.Classifier
	estimator  *difficulty.Estimator
	detector   *dedup.Detector
	reviewer   *reviewer.Reviewer
	scorer     *quality.Scorer

	documents *file.Service
	cache     *cache.AnalysisCache
	corpus    dedup.CorpusProvider
	indexer   Indexer

	now func() time.Time
}

// NewService 创建流水线服务
func NewService(repo *repository.Repositories, cfg Config, deps Deps, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	corpus := deps.Corpus
	if corpus == nil {
		corpus = dedup.NewScanCorpus(repo.Problem, cfg.CorpusBatchSize)
	}
	return &Service{
		repo:       repo,
		cfg:        cfg,
		log:        log,
		segmenter:  segmenter.New(cfg.Segmenter),
		extractor:  extract.New(),
		classifier: classifier.New(cfg.Classifier),
		estimator:  difficulty.New(cfg.Difficulty),
		detector:   dedup.New(cfg.Dedup),
		reviewer:   reviewer.New(cfg.Reviewer, deps.Verifier),
		scorer:     quality.New(cfg.Quality),
		documents:  deps.Documents,
		cache:      deps.Cache,
		corpus:     corpus,
		indexer:    deps.Indexer,
		now:        time.Now,
	}
}

// GetProblem 获取题目
func (s *Service) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	return getProblem(ctx, s.repo, id)
}

// ListProblems 分页查询题目
func (s *Service) ListProblems(ctx context.Context, filter repository.ProblemFilter) ([]*model.Problem, int64, error) {
	return s.repo.Problem.List(ctx, filter)
}

// ListReviews 获取题目的审核记录
func (s *Service) ListReviews(ctx context.Context, id string) ([]*model.ProblemReview, error) {
	if _, err := getProblem(ctx, s.repo, id); err != nil {
		return nil, err
	}
	return s.repo.Review.ListByProblem(ctx, id)
}

func getProblem(ctx context.Context, repo *repository.Repositories, id string) (*model.Problem, error) {
	p, err := repo.Problem.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProblemNotFound
		}
		return nil, err
	}
	return p, nil
}

// sourceOf 读取题目来源，来源缺失时返回 nil
func sourceOf(ctx context.Context, repo *repository.Repositories, p *model.Problem) (*model.Source, error) {
	if p.SourceID == "" {
		return nil, nil
	}
	src, err := repo.Source.GetByID(ctx, p.SourceID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return src, nil
}
