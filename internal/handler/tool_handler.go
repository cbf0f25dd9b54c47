package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service"
	"github.com/ashwinyue/tool-search/internal/service/toolsearch"
)

// ToolHandler 工具处理器
type ToolHandler struct {
	svc *service.Services
}

// NewToolHandler 创建工具处理器
func NewToolHandler(svc *service.Services) *ToolHandler {
	return &ToolHandler{svc: svc}
}

// UpsertTool 写入单个工具
// POST /api/v1/tools
func (h *ToolHandler) UpsertTool(c *gin.Context) {
	var tool model.Tool
	if err := c.ShouldBindJSON(&tool); err != nil {
		badRequest(c, err.Error())
		return
	}

	id, err := h.svc.ToolSearch.UpsertTool(c.Request.Context(), tool, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, model.UpsertResult{IDs: []string{id}, Count: 1})
}

// UpsertTools 批量写入工具，body 为工具数组；可选 batch_size 查询参数
// POST /api/v1/tools/batch
//
// 部分失败时返回 207，data 中为失败前已提交的 ID。
func (h *ToolHandler) UpsertTools(c *gin.Context) {
	tools, err := toolsearch.DecodeTools(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	batchSize := 0
	if raw := c.Query("batch_size"); raw != "" {
		batchSize, err = strconv.Atoi(raw)
		if err != nil || batchSize <= 0 {
			badRequest(c, "invalid batch_size: "+raw)
			return
		}
	}

	ids, err := h.svc.ToolSearch.UpsertTools(c.Request.Context(), tools, namespaceOf(c), batchSize)
	if err != nil {
		if committed := toolsearch.CommittedIDs(err); len(committed) > 0 {
			errorResponseWithData(c, http.StatusMultiStatus, err, model.UpsertResult{IDs: committed, Count: len(committed)})
			return
		}
		errorResponse(c, err)
		return
	}

	created(c, model.UpsertResult{IDs: ids, Count: len(ids)})
}

// GetTool 按 action_id 获取工具
// GET /api/v1/tools/:id
func (h *ToolHandler) GetTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tool, found, err := h.svc.ToolSearch.GetToolByID(c.Request.Context(), id, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}
	if !found {
		notFound(c, "tool not found: "+c.Param("id"))
		return
	}

	success(c, tool)
}

// DeleteTool 删除工具
// DELETE /api/v1/tools/:id
func (h *ToolHandler) DeleteTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.ToolSearch.DeleteTool(c.Request.Context(), id, namespaceOf(c)); err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"action_id": id})
}

// DeleteTools 批量删除工具
// POST /api/v1/tools/delete
func (h *ToolHandler) DeleteTools(c *gin.Context) {
	var req model.DeleteToolsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ids, err := h.svc.ToolSearch.DeleteTools(c.Request.Context(), req.ActionIDs, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"ids": ids, "count": len(ids)})
}
