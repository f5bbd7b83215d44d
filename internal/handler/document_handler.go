package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
)

// DocumentHandler 原始文档处理器
type DocumentHandler struct {
	svc *service.Services
}

// NewDocumentHandler 创建原始文档处理器
func NewDocumentHandler(svc *service.Services) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// GetDocument 获取原始文档记录
// GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	if h.svc.Documents == nil {
		Error(c, pipeline.ErrDocumentsDisabled)
		return
	}

	info, err := h.svc.Documents.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, info)
}

// DeleteDocument 删除原始文档，已导入的题目保留
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if h.svc.Documents == nil {
		Error(c, pipeline.ErrDocumentsDisabled)
		return
	}

	if err := h.svc.Documents.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}
