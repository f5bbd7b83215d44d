package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/service/auth"
	"github.com/ashwinyue/next-qbank/internal/service/importer"
	"github.com/ashwinyue/next-qbank/internal/service/pipeline"
	"github.com/ashwinyue/next-qbank/internal/service/review"
	"github.com/ashwinyue/next-qbank/internal/service/source"
	"github.com/ashwinyue/next-qbank/internal/service/workflow"
)

// ========== API 响应格式 ==========

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Success 成功响应 (200)
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Msg: msg})
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Code: 401, Msg: msg})
}

// Forbidden 403 错误响应
func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Code: 403, Msg: msg})
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Msg: msg})
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, ErrorResponse{Code: 409, Msg: msg})
}

// ServiceUnavailable 503 错误响应
func ServiceUnavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: 503, Msg: msg})
}

// InternalServerError 500 错误响应
func InternalServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Msg: msg})
}

// Error 根据错误类型返回相应的错误响应
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, pipeline.ErrProblemNotFound),
		errors.Is(err, review.ErrEntryNotFound),
		errors.Is(err, source.ErrSourceNotFound),
		repository.IsNotFound(err):
		NotFound(c, err.Error())

	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, source.ErrInvalidSource),
		errors.Is(err, importer.ErrEmptyPayload),
		errors.Is(err, importer.ErrInvalidPayload),
		errors.Is(err, review.ErrReviewerRequired),
		errors.Is(err, auth.ErrReviewerRequired):
		BadRequest(c, err.Error())

	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, pipeline.ErrStateChanged),
		errors.Is(err, pipeline.ErrNotEditable),
		errors.Is(err, review.ErrQueueEntryClosed),
		errors.Is(err, repository.ErrActiveQueueEntryExists):
		Conflict(c, err.Error())

	case errors.Is(err, review.ErrNotAssignee):
		Forbidden(c, err.Error())

	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(c, err.Error())

	case errors.Is(err, pipeline.ErrDocumentsDisabled):
		ServiceUnavailable(c, err.Error())

	default:
		InternalServerError(c, err.Error())
	}
}

// PaginationData 分页响应数据结构
type PaginationData struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages,omitempty"`
}

// SuccessWithPagination 分页成功响应
func SuccessWithPagination(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: PaginationData{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}
