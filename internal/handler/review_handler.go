package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/middleware"
	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/review"
)

// ReviewHandler 人工审核队列处理器
type ReviewHandler struct {
	svc *service.Services
}

// NewReviewHandler 创建审核队列处理器
func NewReviewHandler(svc *service.Services) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// CompleteRequest 提交审核结论
type CompleteRequest struct {
	Outcome model.ReviewOutcome `json:"outcome" binding:"required"`
	Note    string              `json:"note"`
}

// BatchRequest 批量审核请求
type BatchRequest struct {
	Limit int `json:"limit"`
}

// ListQueue 列出队列
// GET /api/v1/review-queue
func (h *ReviewHandler) ListQueue(c *gin.Context) {
	page, size := pageParams(c)
	assignee := c.Query("assignee_id")
	if assignee == "me" {
		assignee, _ = middleware.GetReviewerID(c)
	}

	entries, total, err := h.svc.Review.List(c.Request.Context(), review.ListFilter{
		Status:     model.QueueStatus(strings.ToUpper(c.Query("status"))),
		AssigneeID: assignee,
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		Error(c, err)
		return
	}

	SuccessWithPagination(c, entries, total, page, size)
}

// Assign 领取条目
// POST /api/v1/review-queue/:id/assign
func (h *ReviewHandler) Assign(c *gin.Context) {
	reviewerID, _ := middleware.GetReviewerID(c)

	entry, err := h.svc.Review.Assign(c.Request.Context(), c.Param("id"), reviewerID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, entry)
}

// Complete 提交审核结论
// POST /api/v1/review-queue/:id/complete
func (h *ReviewHandler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	reviewerID, _ := middleware.GetReviewerID(c)

	result, err := h.svc.Review.Complete(c.Request.Context(), c.Param("id"), &review.CompleteRequest{
		ReviewerID: reviewerID,
		Outcome:    model.ReviewOutcome(strings.ToUpper(string(req.Outcome))),
		Note:       req.Note,
	})
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// Batch 对待审核题目批量执行结构校验和自动审核
// POST /api/v1/review-queue/batch
func (h *ReviewHandler) Batch(c *gin.Context) {
	var req BatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.svc.Pipeline.ReviewPending(c.Request.Context(), req.Limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}
