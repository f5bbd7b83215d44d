package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/service"
	"github.com/ashwinyue/next-qbank/internal/service/source"
)

// SourceHandler 来源处理器
type SourceHandler struct {
	svc *service.Services
}

// NewSourceHandler 创建来源处理器
func NewSourceHandler(svc *service.Services) *SourceHandler {
	return &SourceHandler{svc: svc}
}

// CreateSource 创建来源
// POST /api/v1/sources
func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req source.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	src, err := h.svc.Source.Create(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, src)
}

// ListSources 列出来源
// GET /api/v1/sources
func (h *SourceHandler) ListSources(c *gin.Context) {
	page, size := pageParams(c)
	sources, err := h.svc.Source.List(c.Request.Context(), page, size)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, sources)
}

// GetSource 获取来源
// GET /api/v1/sources/:id
func (h *SourceHandler) GetSource(c *gin.Context) {
	src, err := h.svc.Source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, src)
}
