package toolsearch

import (
	"strings"

	"github.com/ashwinyue/tool-search/internal/model"
)

// BuildEmbeddingText 生成工具的向量化文本
//
// 格式: {toolkit_name} {tool_name} | {description} | params: {p1, p2, ...}
// 模板变化会使已存向量与新查询不可比，修改前需要重建索引。
func BuildEmbeddingText(tool model.Tool) string {
	params := "none"
	if len(tool.Parameters) > 0 {
		names := make([]string, len(tool.Parameters))
		for i, p := range tool.Parameters {
			names[i] = p.Name
		}
		params = strings.Join(names, ", ")
	}

	var b strings.Builder
	b.WriteString(tool.ToolkitName)
	b.WriteString(" ")
	b.WriteString(tool.ToolName)
	b.WriteString(" | ")
	b.WriteString(tool.Description)
	b.WriteString(" | params: ")
	b.WriteString(params)
	return b.String()
}
