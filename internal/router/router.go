package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/handler"
	"github.com/ashwinyue/next-qbank/internal/middleware"
	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
	"github.com/ashwinyue/next-qbank/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(svc *service.Services, h *handler.Handlers, log *logger.Logger) *gin.Engine {
	r := gin.New()
	if maxMB := svc.Config.Server.MaxUploadMB; maxMB > 0 {
		r.MaxMultipartMemory = int64(maxMB) << 20
	}

	// 中间件
	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.AuthMiddleware(svc.Auth, !svc.Config.Auth.Required))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Analyze 无状态分析
		analyze := v1.Group("/analyze")
		{
			analyze.POST("/parse", h.Analyze.Parse)
			analyze.POST("/extract", h.Analyze.Extract)
			analyze.POST("/classify", h.Analyze.Classify)
			analyze.POST("/difficulty", h.Analyze.Difficulty)
			analyze.POST("/review", h.Analyze.Review)
			analyze.POST("/score", h.Analyze.Score)
		}

		// Problem 题目
		problems := v1.Group("/problems")
		{
			problems.POST("/import", h.Problem.ImportDocument)
			problems.POST("/bulk", h.Problem.BulkImport)
			problems.GET("", h.Problem.ListProblems)
			problems.GET("/:id", h.Problem.GetProblem)
			problems.PUT("/:id", h.Problem.UpdateProblem)
			problems.DELETE("/:id", h.Problem.DeleteProblem)
			problems.POST("/:id/submit", h.Problem.Submit)
			problems.POST("/:id/auto-validate", h.Problem.AutoValidate)
			problems.POST("/:id/ai-review", h.Problem.AIReview)
			problems.POST("/:id/recompute", h.Problem.Recompute)
			problems.POST("/:id/archive", h.Problem.Archive)
			problems.GET("/:id/reviews", h.Problem.ListReviews)
			problems.POST("/:id/usage", h.Problem.RecordUsage)
		}

		// Document 原始文档
		documents := v1.Group("/documents")
		{
			documents.GET("/:id", h.Document.GetDocument)
			documents.DELETE("/:id", h.Document.DeleteDocument)
		}

		// Review queue 人工审核
		queue := v1.Group("/review-queue")
		{
			queue.GET("", h.Review.ListQueue)
			queue.POST("/batch", h.Review.Batch)
			queue.POST("/:id/assign", middleware.RequireReviewer(), h.Review.Assign)
			queue.POST("/:id/complete", middleware.RequireReviewer(), h.Review.Complete)
		}

		// Source 来源
		sources := v1.Group("/sources")
		{
			sources.POST("", h.Source.CreateSource)
			sources.GET("", h.Source.ListSources)
			sources.GET("/:id", h.Source.GetSource)
		}

		// System 系统
		v1.GET("/system/info", h.System.GetSystemInfo)
	}

	return r
}
