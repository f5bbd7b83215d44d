package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
)

// Service 原始文档服务
type Service struct {
	repo        *repository.Repositories
	storage     Storage
	storageType StorageType
}

// NewService 创建原始文档服务
func NewService(repo *repository.Repositories, storage Storage, storageType StorageType) *Service {
	return &Service{
		repo:        repo,
		storage:     storage,
		storageType: storageType,
	}
}

// NewServiceFromConfig 从配置创建原始文档服务
func NewServiceFromConfig(ctx context.Context, repo *repository.Repositories, cfg *config.StorageConfig) (*Service, error) {
	var storage Storage
	var err error

	storageType := StorageType(cfg.Type)
	switch storageType {
	case StorageTypeLocal:
		basePath := cfg.BasePath
		if basePath == "" {
			basePath = "./data/documents"
		}
		urlPrefix := cfg.URLPrefix
		if urlPrefix == "" {
			urlPrefix = "/documents"
		}
		storage, err = NewLocalStorage(basePath, urlPrefix)

	case StorageTypeMinIO:
		if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
			return nil, fmt.Errorf("missing required MinIO config")
		}
		urlPrefix := cfg.URLPrefix
		if urlPrefix == "" {
			urlPrefix = cfg.Endpoint
		}
		storage, err = NewMinIOStorage(ctx, &MinIOConfig{
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			BucketName: cfg.Bucket,
			UseSSL:     cfg.UseSSL,
			URLPrefix:  urlPrefix,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	return NewService(repo, storage, storageType), nil
}

// SaveDocumentRequest 保存原始文档请求
type SaveDocumentRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	SourceID    string
}

// SaveDocument 保存原始文档并创建记录，同时记录内容的 sha256
func (s *Service) SaveDocument(ctx context.Context, req *SaveDocumentRequest) (*model.SourceDocument, error) {
	hash := sha256.New()
	stored, err := s.storage.Save(ctx, &SaveRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		Reader:      io.TeeReader(req.Reader, hash),
		SourceID:    req.SourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	doc := &model.SourceDocument{
		SourceID:    req.SourceID,
		FileName:    req.FileName,
		FileSize:    stored.Size,
		ContentType: req.ContentType,
		Checksum:    hex.EncodeToString(hash.Sum(nil)),
		StorageType: string(s.storageType),
		FilePath:    stored.Path,
		Status:      model.DocumentStatusStored,
	}

	if err := s.repo.Document.Create(ctx, doc); err != nil {
		// 记录写入失败时回收已保存的文件
		_ = s.storage.Delete(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

// OpenDocument 打开原始文档
func (s *Service) OpenDocument(ctx context.Context, id string) (*model.SourceDocument, io.ReadCloser, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("document not found: %w", err)
	}

	reader, err := s.storage.Get(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get document content: %w", err)
	}

	return doc, reader, nil
}

// MarkProcessed 记录文档的解析结果
func (s *Service) MarkProcessed(ctx context.Context, id string, problemCount int, parseErr string) error {
	status := model.DocumentStatusParsed
	if parseErr != "" {
		status = model.DocumentStatusFailed
	}
	return s.repo.Document.MarkProcessed(ctx, id, status, problemCount, parseErr)
}

// DeleteDocument 删除原始文档
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	if err := s.storage.Delete(ctx, doc.FilePath); err != nil {
		return fmt.Errorf("failed to delete document from storage: %w", err)
	}

	if err := s.repo.Document.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	return nil
}

// DocumentInfo 文档记录及访问地址
type DocumentInfo struct {
	*model.SourceDocument
	URL string `json:"url"`
}

// GetDocument 获取文档记录及访问地址
func (s *Service) GetDocument(ctx context.Context, id string) (*DocumentInfo, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &DocumentInfo{SourceDocument: doc, URL: s.storage.GetURL(doc.FilePath)}, nil
}
