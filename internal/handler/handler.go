package handler

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Analyze  *AnalyzeHandler
	Problem  *ProblemHandler
	Document *DocumentHandler
	Review   *ReviewHandler
	Source   *SourceHandler
	System   *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Analyze:  NewAnalyzeHandler(svc),
		Problem:  NewProblemHandler(svc),
		Document: NewDocumentHandler(svc),
		Review:   NewReviewHandler(svc),
		Source:   NewSourceHandler(svc),
		System:   NewSystemHandler(svc),
	}
}

// queryInt 读取整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// formInt 读取整数表单参数
func formInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.PostForm(key))
	if err != nil {
		return def
	}
	return v
}

// pageParams 分页参数，page 从 1 开始，page_size 上限 100
func pageParams(c *gin.Context) (int, int) {
	page := queryInt(c, "page", 1)
	if page <= 0 {
		page = 1
	}
	size := queryInt(c, "page_size", 20)
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

// uploadedFile 读取 multipart 中的 file 字段并检查大小
func uploadedFile(c *gin.Context, maxMB int) (*multipart.FileHeader, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	if maxMB > 0 && fileHeader.Size > int64(maxMB)<<20 {
		return nil, fmt.Errorf("file exceeds %d MB", maxMB)
	}
	return fileHeader, nil
}

// contentType 上传文件的 MIME 类型，未声明时按扩展名推断
func contentType(fileHeader *multipart.FileHeader) string {
	ct := fileHeader.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
