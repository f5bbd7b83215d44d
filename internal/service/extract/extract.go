// Package extract 从上传的原始文档中提取纯文本
package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	einoparser "github.com/cloudwego/eino/components/document/parser"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Result 提取结果
// 不支持的类型返回空文本和 Error，调用方据此分支处理
type Result struct {
	Text     string `json:"text"`
	MIMEType string `json:"mime_type"`
	Error    string `json:"error,omitempty"`
}

// Extractor 文本提取器
type Extractor struct {
	parsers map[string]einoparser.Parser
}

// New 创建提取器
func New() *Extractor {
	return &Extractor{
		parsers: map[string]einoparser.Parser{
			"text/plain": &einoparser.TextParser{},
		},
	}
}

// Supported 是否支持该 MIME 类型
func (e *Extractor) Supported(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	_, ok := e.parsers[mediaType]
	return ok
}

// Extract 提取文本
func (e *Extractor) Extract(ctx context.Context, r io.Reader, mimeType string) *Result {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return &Result{MIMEType: mimeType, Error: fmt.Sprintf("invalid mime type %q: %v", mimeType, err)}
	}
	result := &Result{MIMEType: mediaType}

	p, ok := e.parsers[mediaType]
	if !ok {
		result.Error = fmt.Sprintf("unsupported file type %s: convert the document to text/plain before import", mediaType)
		return result
	}

	reader := r
	if charset := strings.ToLower(params["charset"]); charset != "" && charset != "utf-8" && charset != "us-ascii" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			result.Error = fmt.Sprintf("unsupported charset %s", charset)
			return result
		}
		reader = transform.NewReader(r, enc.NewDecoder())
	}

	docs, err := p.Parse(ctx, reader)
	if err != nil {
		result.Error = fmt.Sprintf("failed to parse document: %v", err)
		return result
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.Content == "" {
			continue
		}
		parts = append(parts, doc.Content)
	}
	result.Text = strings.ToValidUTF8(strings.Join(parts, "\n"), "")
	return result
}
