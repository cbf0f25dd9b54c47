package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashwinyue/tool-search/internal/handler"
	"github.com/ashwinyue/tool-search/internal/middleware"
	"github.com/ashwinyue/tool-search/internal/service"
)

// SetupRouter 设置路由；每个 Engine 使用独立的指标注册表
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(metrics.Middleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	var secret string
	if svc != nil && svc.Config != nil {
		secret = svc.Config.Auth.JWTSecret
	}

	// API v1
	v1 := r.Group("/api/v1")
	v1.GET("/health", h.System.HealthCheck)

	api := v1.Group("", middleware.JWTAuth(secret))
	{
		api.GET("/stats", h.System.GetStats)

		// Tool 工具
		tools := api.Group("/tools")
		{
			tools.POST("", h.Tool.UpsertTool)
			tools.POST("/batch", h.Tool.UpsertTools)
			tools.POST("/delete", h.Tool.DeleteTools)
			tools.POST("/search", h.Search.SearchTools)
			tools.GET("/:id", h.Tool.GetTool)
			tools.DELETE("/:id", h.Tool.DeleteTool)
		}

		// Toolkit 工具包
		toolkits := api.Group("/toolkits")
		{
			toolkits.POST("", h.Toolkit.UpsertToolkit)
			toolkits.POST("/search", h.Search.SearchToolkits)
			toolkits.GET("/:id/tools", h.Toolkit.GetToolkitTools)
			toolkits.DELETE("/:id", h.Toolkit.DeleteToolkit)
		}
	}

	return r
}
