package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/difficulty"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
	"github.com/ashwinyue/next-qbank/internal/service/quality"
	"github.com/ashwinyue/next-qbank/internal/service/reviewer"
)

// AnalyzeHandler 无状态分析接口
type AnalyzeHandler struct {
	svc *service.Services
}

// NewAnalyzeHandler 创建分析处理器
func NewAnalyzeHandler(svc *service.Services) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

// ParseRequest 切分请求
type ParseRequest struct {
	Text string `json:"text" binding:"required"`
}

// DifficultyRequest 难度估算请求
type DifficultyRequest struct {
	Content    string   `json:"content" binding:"required"`
	Options    []string `json:"options"`
	GradeLevel int      `json:"grade_level"`
}

// ScoreRequest 质量评分请求
type ScoreRequest struct {
	Content     string               `json:"content" binding:"required"`
	Type        model.ProblemType    `json:"type"`
	Options     []string             `json:"options"`
	Answer      string               `json:"answer"`
	Explanation string               `json:"explanation"`
	Difficulty  model.DifficultyTier `json:"difficulty"`
	UsageCount  int                  `json:"usage_count"`
	CorrectRate *float64             `json:"correct_rate"`
	SourceID    string               `json:"source_id"`
}

// Parse 切分原始文本
// POST /api/v1/analyze/parse
func (h *AnalyzeHandler) Parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	Success(c, h.svc.Pipeline.Parse(req.Text))
}

// Extract 上传文档并提取、切分，不落库
// POST /api/v1/analyze/extract
func (h *AnalyzeHandler) Extract(c *gin.Context) {
	fileHeader, err := uploadedFile(c, h.svc.Config.Server.MaxUploadMB)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		Error(c, err)
		return
	}
	defer f.Close()

	Success(c, h.svc.Pipeline.Extract(c.Request.Context(), f, contentType(fileHeader)))
}

// Classify 学科分类 + 难度 + 重复检测
// POST /api/v1/analyze/classify
func (h *AnalyzeHandler) Classify(c *gin.Context) {
	var req pipeline.ClassifyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Content == "" {
		BadRequest(c, "content is required")
		return
	}

	result, err := h.svc.Pipeline.Classify(c.Request.Context(), req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// Difficulty 难度估算
// POST /api/v1/analyze/difficulty
func (h *AnalyzeHandler) Difficulty(c *gin.Context) {
	var req DifficultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	Success(c, h.svc.Pipeline.Difficulty(difficulty.Input{
		Content:    req.Content,
		Options:    req.Options,
		GradeLevel: req.GradeLevel,
	}))
}

// Review 自动审核
// POST /api/v1/analyze/review
func (h *AnalyzeHandler) Review(c *gin.Context) {
	var req reviewer.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	Success(c, h.svc.Pipeline.Review(c.Request.Context(), &req))
}

// Score 质量评分
// POST /api/v1/analyze/score
func (h *AnalyzeHandler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var src *model.Source
	if req.SourceID != "" {
		var err error
		src, err = h.svc.Source.Get(c.Request.Context(), req.SourceID)
		if err != nil {
			Error(c, err)
			return
		}
	}

	Success(c, h.svc.Pipeline.Score(&quality.Input{
		Content:     req.Content,
		Type:        req.Type,
		Options:     req.Options,
		Answer:      req.Answer,
		Explanation: req.Explanation,
		Difficulty:  req.Difficulty,
		UsageCount:  req.UsageCount,
		CorrectRate: req.CorrectRate,
		Source:      src,
	}))
}
