package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-search/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services) *SystemHandler {
	return &SystemHandler{svc: svc}
}

// HealthCheck 依赖健康检查；始终返回 200，状态在 data.status 中
// GET /api/v1/health
func (h *SystemHandler) HealthCheck(c *gin.Context) {
	success(c, h.svc.ToolSearch.HealthCheck(c.Request.Context()))
}

// GetStats 索引统计
// GET /api/v1/stats
func (h *SystemHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.ToolSearch.GetIndexStats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, stats)
}
