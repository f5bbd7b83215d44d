package handler

import (
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/file"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
)

// ProblemHandler 题目处理器
type ProblemHandler struct {
	svc *service.Services
}

// NewProblemHandler 创建题目处理器
func NewProblemHandler(svc *service.Services) *ProblemHandler {
	return &ProblemHandler{svc: svc}
}

// UsageRequest 作答统计
type UsageRequest struct {
	Attempts int `json:"attempts" binding:"required"`
	Correct  int `json:"correct"`
}

// ScoredProblem 题目及其最新质量分
type ScoredProblem struct {
	Problem *model.Problem      `json:"problem"`
	Quality model.QualityScores `json:"quality"`
}

// ImportDocument 上传原始文档并生成草稿题目
// POST /api/v1/problems/import
func (h *ProblemHandler) ImportDocument(c *gin.Context) {
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

	result, err := h.svc.Pipeline.ImportDocument(c.Request.Context(), &file.SaveDocumentRequest{
		FileName:    fileHeader.Filename,
		ContentType: contentType(fileHeader),
		Size:        fileHeader.Size,
		Reader:      f,
		SourceID:    c.PostForm("source_id"),
	}, formInt(c, "grade_level", 0))
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, result)
}

// BulkImport 导入结构化 JSON 题目
// POST /api/v1/problems/bulk
func (h *ProblemHandler) BulkImport(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Importer.Import(c.Request.Context(), data, c.Query("source_id"))
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, result)
}

// ListProblems 列出题目
// GET /api/v1/problems
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	page, size := pageParams(c)
	filter := repository.ProblemFilter{
		Status:      model.ProblemStatus(strings.ToUpper(c.Query("status"))),
		ReviewStage: model.ReviewStage(strings.ToUpper(c.Query("review_stage"))),
		Type:        model.ProblemType(strings.ToUpper(c.Query("type"))),
		SubjectID:   c.Query("subject_id"),
		SourceID:    c.Query("source_id"),
		Keyword:     c.Query("keyword"),
		Page:        page,
		PageSize:    size,
	}

	problems, total, err := h.svc.Pipeline.ListProblems(c.Request.Context(), filter)
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithPagination(c, problems, total, page, size)
}

// GetProblem 获取题目
// GET /api/v1/problems/:id
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	p, err := h.svc.Pipeline.GetProblem(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, p)
}

// UpdateProblem 编辑草稿
// PUT /api/v1/problems/:id
func (h *ProblemHandler) UpdateProblem(c *gin.Context) {
	var req pipeline.UpdateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Pipeline.UpdateProblem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, p)
}

// DeleteProblem 删除草稿
// DELETE /api/v1/problems/:id
func (h *ProblemHandler) DeleteProblem(c *gin.Context) {
	if err := h.svc.Pipeline.DeleteProblem(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Submit 提交审核
// POST /api/v1/problems/:id/submit
func (h *ProblemHandler) Submit(c *gin.Context) {
	h.stage(c, h.svc.Pipeline.Submit)
}

// AutoValidate 执行结构校验
// POST /api/v1/problems/:id/auto-validate
func (h *ProblemHandler) AutoValidate(c *gin.Context) {
	h.stage(c, h.svc.Pipeline.RunAutoValidation)
}

// AIReview 执行自动审核
// POST /api/v1/problems/:id/ai-review
func (h *ProblemHandler) AIReview(c *gin.Context) {
	h.stage(c, h.svc.Pipeline.RunAIReview)
}

// Archive 归档
// POST /api/v1/problems/:id/archive
func (h *ProblemHandler) Archive(c *gin.Context) {
	h.stage(c, h.svc.Pipeline.Archive)
}

func (h *ProblemHandler) stage(c *gin.Context, run func(ctx context.Context, id string) (*pipeline.StageResult, error)) {
	result, err := run(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// Recompute 重新计算质量分
// POST /api/v1/problems/:id/recompute
func (h *ProblemHandler) Recompute(c *gin.Context) {
	p, scores, err := h.svc.Pipeline.RecomputeQuality(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, ScoredProblem{Problem: p, Quality: scores})
}

// RecordUsage 记录作答统计
// POST /api/v1/problems/:id/usage
func (h *ProblemHandler) RecordUsage(c *gin.Context) {
	var req UsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, scores, err := h.svc.Pipeline.RecordUsage(c.Request.Context(), c.Param("id"), req.Attempts, req.Correct)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, ScoredProblem{Problem: p, Quality: scores})
}

// ListReviews 题目审核记录
// GET /api/v1/problems/:id/reviews
func (h *ProblemHandler) ListReviews(c *gin.Context) {
	reviews, err := h.svc.Pipeline.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, reviews)
}
