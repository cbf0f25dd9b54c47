package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service"
)

// SearchHandler 检索处理器
type SearchHandler struct {
	svc *service.Services
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(svc *service.Services) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// SearchTools 语义 + 过滤检索工具
// POST /api/v1/tools/search
func (h *SearchHandler) SearchTools(c *gin.Context) {
	var req model.ToolSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	results, err := h.svc.ToolSearch.QueryTools(c.Request.Context(), req, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, results)
}

// SearchToolkits 检索并按工具包聚合
// POST /api/v1/toolkits/search
func (h *SearchHandler) SearchToolkits(c *gin.Context) {
	var req model.ToolkitSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	results, err := h.svc.ToolSearch.SearchToolkits(c.Request.Context(), req, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, results)
}
