package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// SystemInfo 系统信息
type SystemInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Documents   bool   `json:"documents"`
	Cache       bool   `json:"cache"`
	Elastic     bool   `json:"elastic"`
	CorpusMode  string `json:"corpus_mode"`
	AuthMode    string `json:"auth_mode"`
}

// GetSystemInfo 获取系统信息
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	cfg := h.svc.Config

	corpusMode := "scan"
	if h.svc.Elastic != nil && cfg.Pipeline.CorpusMode == service.CorpusModeElastic {
		corpusMode = service.CorpusModeElastic
	}
	authMode := "header"
	if cfg.Auth.Required {
		authMode = "token"
	}

	Success(c, SystemInfo{
		Name:        cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Documents:   h.svc.Documents != nil,
		Cache:       h.svc.Cache.Enabled(),
		Elastic:     h.svc.Elastic != nil,
		CorpusMode:  corpusMode,
		AuthMode:    authMode,
	})
}
