package service

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/auth"
	"github.com/ashwinyue/next-qbank/internal/service/cache"
	"github.com/ashwinyue/next-qbank/internal/service/dedup"
	"github.com/ashwinyue/next-qbank/internal/service/file"
	"github.com/ashwinyue/next-qbank/internal/service/importer"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
	"github.com/ashwinyue/next-qbank/internal/service/review"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
	"github.com/ashwinyue/next-qbank/internal/service/source"
)

// CorpusModeElastic 使用 ES 预筛选重复候选
const CorpusModeElastic = "elastic"

// Services 服务集合
type Services struct {
	// 业务服务
	Pipeline *pipeline.Service
	Review   *review.Service
	Importer *importer.Service
	Source   *source.Service
	Auth     *auth.Service

	// 可选组件，未启用时为 nil
	Documents *file.Service
	Cache     *cache.AnalysisCache
	Elastic   *dedup.ElasticCorpus

	// 配置
	Config *config.Config
}

// NewServices 创建所有服务
// redisClient、esClient 可以为 nil，对应组件降级为进程内实现
func NewServices(ctx context.Context, repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client, esClient *elasticsearch.Client, log *logger.Logger) (*Services, error) {
	if log == nil {
		log = logger.NewNop()
	}

	authSvc, err := auth.NewService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwtSecret is empty, using a random secret for this process")
	}

	documents, err := newDocuments(ctx, repo, cfg)
	if err != nil {
		log.Warn("document storage disabled", "error", err)
	}

	analysisCache := newCache(cfg, redisClient, log)
	elastic := newElasticCorpus(ctx, cfg, esClient, log)

	deps := pipeline.Deps{
		Documents: documents,
		Cache:     analysisCache,
		Verifier:  reviewer.NewFormatVerifier(),
	}
	if elastic != nil {
		deps.Indexer = elastic
		if cfg.Pipeline.CorpusMode == CorpusModeElastic {
			deps.Corpus = elastic
		}
	}

	pipelineSvc := pipeline.NewService(repo, pipeline.ConfigFrom(&cfg.Pipeline), deps, log)

	return &Services{
		Pipeline:  pipelineSvc,
		Review:    review.NewService(repo, pipelineSvc, log),
		Importer:  importer.NewService(repo, log),
		Source:    source.NewService(repo),
		Auth:      authSvc,
		Documents: documents,
		Cache:     analysisCache,
		Elastic:   elastic,
		Config:    cfg,
	}, nil
}

// newDocuments 创建原始文档存储，type 为 none 时不启用
func newDocuments(ctx context.Context, repo *repository.Repositories, cfg *config.Config) (*file.Service, error) {
	if cfg.Storage.Type == "" || cfg.Storage.Type == "none" {
		return nil, fmt.Errorf("storage type is %q", cfg.Storage.Type)
	}
	return file.NewServiceFromConfig(ctx, repo, &cfg.Storage)
}

// newCache 创建分析缓存，TTL 为 0 时不缓存
func newCache(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) *cache.AnalysisCache {
	if cfg.Pipeline.CacheTTL <= 0 {
		return nil
	}
	return cache.New(redisClient, time.Duration(cfg.Pipeline.CacheTTL)*time.Second, log)
}

// newElasticCorpus 创建 ES 索引与语料，失败时回退到数据库扫描
func newElasticCorpus(ctx context.Context, cfg *config.Config, esClient *elasticsearch.Client, log *logger.Logger) *dedup.ElasticCorpus {
	if esClient == nil {
		if cfg.Pipeline.CorpusMode == CorpusModeElastic {
			log.Warn("pipeline.corpusMode is elastic but elasticsearch is disabled, falling back to scan")
		}
		return nil
	}

	corpus := dedup.NewElasticCorpus(esClient, cfg.Elastic.ProblemIndex(), cfg.Pipeline.CorpusCandidateLimit)
	if err := corpus.EnsureIndex(ctx); err != nil {
		log.Warn("failed to ensure problem index, elasticsearch disabled", "error", err)
		return nil
	}
	return corpus
}
