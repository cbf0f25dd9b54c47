// Package handler 工具检索 HTTP 处理器
package handler

import (
	"github.com/ashwinyue/tool-search/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Tool    *ToolHandler
	Toolkit *ToolkitHandler
	Search  *SearchHandler
	System  *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Tool:    NewToolHandler(svc),
		Toolkit: NewToolkitHandler(svc),
		Search:  NewSearchHandler(svc),
		System:  NewSystemHandler(svc),
	}
}
