package toolsearch

import (
	"encoding/json"

	"github.com/spf13/cast"

	"github.com/ashwinyue/tool-search/internal/model"
)

// 元数据字段
const (
	MetaActionID       = "action_id"
	MetaToolkitID      = "toolkit_id"
	MetaToolName       = "tool_name"
	MetaDescription    = "description"
	MetaToolkitName    = "toolkit_name"
	MetaParameters     = "parameters"
	MetaRequiredParams = "required_params"
	MetaChain          = "chain"

	MetaToolkitDescription = "toolkit_description"
)

// EncodeMetadata 工具 -> 扁平元数据，parameters 序列化为 JSON 字符串
func EncodeMetadata(tool model.Tool) map[string]any {
	params := tool.Parameters
	if params == nil {
		params = []model.ToolParameter{}
	}
	encoded, _ := json.Marshal(params)

	required := make([]string, 0, len(params))
	for _, p := range params {
		if p.Required {
			required = append(required, p.Name)
		}
	}

	md := map[string]any{
		MetaActionID:       tool.ActionID,
		MetaToolkitID:      tool.ToolkitID,
		MetaToolName:       tool.ToolName,
		MetaDescription:    tool.Description,
		MetaToolkitName:    tool.ToolkitName,
		MetaParameters:     string(encoded),
		MetaRequiredParams: required,
	}
	if tool.ToolkitDescription != "" {
		md[MetaToolkitDescription] = tool.ToolkitDescription
	}
	return md
}

// DecodeMetadata 元数据 -> 工具
//
// 读取宽松：缺失数值为 0，缺失字符串为空，parameters 无法解析时为空列表。
func DecodeMetadata(md map[string]any) model.Tool {
	return model.Tool{
		ActionID:    cast.ToInt64(md[MetaActionID]),
		ToolkitID:   cast.ToInt64(md[MetaToolkitID]),
		ToolName:    cast.ToString(md[MetaToolName]),
		Description: cast.ToString(md[MetaDescription]),
		Parameters:  ParseParameters(md[MetaParameters]),
		ToolkitName: cast.ToString(md[MetaToolkitName]),

		ToolkitDescription: cast.ToString(md[MetaToolkitDescription]),
	}
}

// storedParameter 解码用；type 与 required 缺失时视为格式错误
type storedParameter struct {
	Name        string  `json:"name"`
	Type        *string `json:"type"`
	Required    *bool   `json:"required"`
	Description string  `json:"description"`
}

// ParseParameters 解析参数，接受 JSON 字符串或已结构化的列表
func ParseParameters(v any) []model.ToolParameter {
	out := []model.ToolParameter{}

	var raw []byte
	switch t := v.(type) {
	case nil:
		return out
	case string:
		if t == "" {
			return out
		}
		raw = []byte(t)
	case []byte:
		raw = t
	case []any, []map[string]any, []model.ToolParameter:
		b, err := json.Marshal(t)
		if err != nil {
			return out
		}
		raw = b
	default:
		return out
	}

	var stored []storedParameter
	if err := json.Unmarshal(raw, &stored); err != nil {
		return out
	}
	for _, p := range stored {
		if p.Name == "" || p.Type == nil || p.Required == nil {
			return []model.ToolParameter{}
		}
		out = append(out, model.ToolParameter{
			Name:        p.Name,
			Type:        *p.Type,
			Required:    *p.Required,
			Description: p.Description,
		})
	}
	return out
}
