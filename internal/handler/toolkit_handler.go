package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service"
)

// ToolkitHandler 工具包处理器
type ToolkitHandler struct {
	svc *service.Services
}

// NewToolkitHandler 创建工具包处理器
func NewToolkitHandler(svc *service.Services) *ToolkitHandler {
	return &ToolkitHandler{svc: svc}
}

// UpsertToolkit 写入工具包内的全部工具
// POST /api/v1/toolkits
func (h *ToolkitHandler) UpsertToolkit(c *gin.Context) {
	var toolkit model.Toolkit
	if err := c.ShouldBindJSON(&toolkit); err != nil {
		badRequest(c, err.Error())
		return
	}

	ids, err := h.svc.ToolSearch.UpsertToolkit(c.Request.Context(), toolkit, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, model.UpsertResult{IDs: ids, Count: len(ids)})
}

// GetToolkitTools 列出工具包内的工具（最多 100 个）
// GET /api/v1/toolkits/:id/tools
func (h *ToolkitHandler) GetToolkitTools(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tools, err := h.svc.ToolSearch.GetToolkitTools(c.Request.Context(), id, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, tools)
}

// DeleteToolkit 删除工具包内的全部工具
// DELETE /api/v1/toolkits/:id
func (h *ToolkitHandler) DeleteToolkit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.ToolSearch.DeleteToolkit(c.Request.Context(), id, namespaceOf(c))
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"toolkit_id": id, "deleted": deleted})
}
