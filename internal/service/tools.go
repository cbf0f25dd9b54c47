package service

import (
	"context"
	"encoding/json"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/service/toolsearch"
)

// ToolSearchToolName Agent 可见的工具名
const ToolSearchToolName = "tool_search"

// ToolSearchTool 将工具目录检索暴露为 eino 工具，供 Agent 按需发现可调用的工具
type ToolSearchTool struct {
	svc *toolsearch.Service
}

var _ einotool.InvokableTool = (*ToolSearchTool)(nil)

// NewToolSearchTool 创建工具检索工具
func NewToolSearchTool(svc *toolsearch.Service) *ToolSearchTool {
	return &ToolSearchTool{svc: svc}
}

// toolSearchInput 工具入参
type toolSearchInput struct {
	Query     string         `json:"query"`
	TopK      *int           `json:"top_k"`
	Filters   map[string]any `json:"filters"`
	Namespace string         `json:"namespace"`
}

func (t *ToolSearchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolSearchToolName,
		Desc: "Finds tools in the catalog that can accomplish a task, ranked by semantic similarity. " +
			"Use filters such as toolkit_id, toolkit, chain or required_params to narrow the results.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type: schema.String,
				Desc: "What the tool should do, in natural language",
			},
			"top_k": {
				Type: schema.Integer,
				Desc: "Number of tools to return (optional, default 5, max 50)",
			},
			"filters": {
				Type: schema.Object,
				Desc: "Metadata filters, e.g. {\"toolkit_id\": 79}",
			},
			"namespace": {
				Type: schema.String,
				Desc: "Catalog namespace (optional)",
			},
		}),
	}, nil
}

func (t *ToolSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var input toolSearchInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", errors.Wrap(err, "failed to parse arguments")
	}

	results, err := t.svc.QueryTools(ctx, model.ToolSearchRequest{
		Query:   input.Query,
		TopK:    input.TopK,
		Filters: input.Filters,
	}, input.Namespace)
	if err != nil {
		return "", err
	}

	output, err := json.Marshal(map[string]any{
		"tools": results,
		"total": len(results),
		"query": input.Query,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal results")
	}
	return string(output), nil
}

// ToolInfo 将目录中的工具转换为 eino 工具描述，检索结果可直接绑定到 ChatModel
func ToolInfo(tool model.Tool) *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(tool.Parameters))
	for _, p := range tool.Parameters {
		params[p.Name] = &schema.ParameterInfo{
			Type:     dataType(p.Type),
			Desc:     p.Description,
			Required: p.Required,
		}
	}

	info := &schema.ToolInfo{
		Name: tool.ToolName,
		Desc: tool.Description,
	}
	if len(params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	}
	return info
}

func dataType(t string) schema.DataType {
	switch strings.ToLower(t) {
	case "integer", "int", "int64":
		return schema.Integer
	case "number", "float", "double":
		return schema.Number
	case "boolean", "bool":
		return schema.Boolean
	case "array", "list":
		return schema.Array
	case "object", "map":
		return schema.Object
	default:
		return schema.String
	}
}
