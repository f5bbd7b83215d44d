package dedup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/model"
)

// NewElasticClient 创建 ES8 客户端
func NewElasticClient(cfg *config.ElasticConfig) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Host},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
}

// ElasticCorpus 用 ES more_like_this 预筛选候选，再由 Detector 做精确比较
type ElasticCorpus struct {
	client *elasticsearch.Client
	index  string
	limit  int
}

// NewElasticCorpus 创建 ES 语料
func NewElasticCorpus(client *elasticsearch.Client, index string, limit int) *ElasticCorpus {
	if limit <= 0 {
		limit = 50
	}
	return &ElasticCorpus{client: client, index: index, limit: limit}
}

// problemDoc 索引中的题目文档
type problemDoc struct {
	Content   string `json:"content"`
	Status    string `json:"status"`
	SubjectID string `json:"subject_id,omitempty"`
	SourceID  string `json:"source_id,omitempty"`
}

// EnsureIndex 确保索引存在（如不存在则创建）
func (c *ElasticCorpus) EnsureIndex(ctx context.Context) error {
	res, err := c.client.Indices.Exists([]string{c.index}, c.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content":    map[string]interface{}{"type": "text"},
				"status":     map[string]interface{}{"type": "keyword"},
				"subject_id": map[string]interface{}{"type": "keyword"},
				"source_id":  map[string]interface{}{"type": "keyword"},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	req := esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader(body),
	}
	createRes, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}
	return nil
}

// IndexProblem 写入或覆盖题目文档
func (c *ElasticCorpus) IndexProblem(ctx context.Context, p *model.Problem) error {
	body, err := json.Marshal(problemDoc{
		Content:   p.Content,
		Status:    string(p.Status),
		SubjectID: p.SubjectID,
		SourceID:  p.SourceID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal problem: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index problem: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index problem %s: %s", p.ID, res.String())
	}
	return nil
}

// DeleteProblem 删除题目文档，不存在时忽略
func (c *ElasticCorpus) DeleteProblem(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: c.index, DocumentID: id}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete problem %s: %s", id, res.String())
	}
	return nil
}

// searchResponse ES 搜索响应
type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Source problemDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Candidates 实现 CorpusProvider，返回一批相似候选
func (c *ElasticCorpus) Candidates(ctx context.Context, content string, fn func(batch []Entry) error) error {
	query := map[string]interface{}{
		"size":    c.limit,
		"_source": []string{"content"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"more_like_this": map[string]interface{}{
						"fields":               []string{"content"},
						"like":                 content,
						"min_term_freq":        1,
						"min_doc_freq":         1,
						"minimum_should_match": "30%",
					},
				},
				"must_not": map[string]interface{}{
					"term": map[string]interface{}{"status": string(model.ProblemStatusArchived)},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search error: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read search response: %w", err)
	}
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to decode search response: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		entries = append(entries, Entry{ID: hit.ID, Content: hit.Source.Content})
	}
	if len(entries) == 0 {
		return nil
	}
	return fn(entries)
}
