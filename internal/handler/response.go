package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-search/internal/service/toolsearch"
)

// Response 统一响应；Code 0 为成功，-1 为失败，ErrorCode 为错误类型
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// success 成功响应 (200)
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// created 创建成功响应 (201)
func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// badRequest 请求体或参数不合法 (400)
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:      -1,
		Message:   msg,
		ErrorCode: string(toolsearch.CodeValidation),
	})
}

// notFound 资源不存在 (404)
func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: -1, Message: msg})
}

// errorResponse 按错误类型选择状态码
func errorResponse(c *gin.Context, err error) {
	errorResponseWithData(c, statusOf(err), err, nil)
}

func errorResponseWithData(c *gin.Context, status int, err error, data interface{}) {
	c.JSON(status, Response{
		Code:      -1,
		Message:   err.Error(),
		ErrorCode: string(toolsearch.CodeOf(err)),
		Data:      data,
	})
}

// statusOf 错误类型到 HTTP 状态码
func statusOf(err error) int {
	switch toolsearch.CodeOf(err) {
	case toolsearch.CodeValidation, toolsearch.CodeFileLoad:
		return http.StatusBadRequest
	case toolsearch.CodeConfiguration, toolsearch.CodeInitialization, toolsearch.CodeDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// namespaceOf 读取 namespace 查询参数，空值交给服务使用默认命名空间
func namespaceOf(c *gin.Context) string {
	return c.Query("namespace")
}

// parseID 解析正整数路径参数
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name+": "+c.Param(name))
		return 0, false
	}
	return id, true
}
