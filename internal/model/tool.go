package model

// ToolParameter 工具参数定义
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Tool 工具定义，ActionID 全局唯一
type Tool struct {
	ActionID    int64           `json:"action_id" validate:"gt=0"`
	ToolkitID   int64           `json:"toolkit_id"`
	ToolName    string          `json:"tool_name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	ToolkitName string          `json:"toolkit"`

	// ToolkitDescription 由工具包写入时继承
	ToolkitDescription string `json:"toolkit_description,omitempty"`
}

// Toolkit 工具包定义
type Toolkit struct {
	ToolkitID   int64  `json:"toolkit_id" validate:"gt=0"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tools       []Tool `json:"tools"`
}

// ToolSearchRequest 工具搜索请求；未设置 TopK 时使用默认值，显式的 0 视为非法
type ToolSearchRequest struct {
	Query   string         `json:"query"`
	TopK    *int           `json:"top_k,omitempty" validate:"omitnil,min=1,max=50"`
	Filters map[string]any `json:"filters,omitempty"`
}

// ToolSearchResponse 工具搜索结果
type ToolSearchResponse struct {
	ToolName    string          `json:"tool_name"`
	ActionID    int64           `json:"action_id"`
	ToolkitID   int64           `json:"toolkit_id"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	// Score 相似度分数 (0-1)
	Score float64 `json:"score"`
}

// ToolkitSearchRequest 工具包搜索请求
type ToolkitSearchRequest = ToolSearchRequest

// ToolkitSearchResponse 工具包搜索结果
type ToolkitSearchResponse struct {
	ToolkitID   int64    `json:"toolkit_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ToolsCount  int      `json:"tools_count"`
	SampleTools []string `json:"sample_tools"`
	Score       float64  `json:"score"`
}

// DeleteToolsRequest 批量删除请求
type DeleteToolsRequest struct {
	ActionIDs []int64 `json:"action_ids" binding:"required"`
}

// UpsertResult 写入结果；部分失败时为已提交的 ID
type UpsertResult struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}
