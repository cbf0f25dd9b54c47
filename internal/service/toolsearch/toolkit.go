package toolsearch

import (
	"context"

	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// UpsertToolkit 写入工具包内的全部工具
//
// 工具未设置 toolkit_id / toolkit 时从工具包继承；toolkit_id 与工具包不一致时拒绝。
func (s *Service) UpsertToolkit(ctx context.Context, toolkit model.Toolkit, namespace string) ([]string, error) {
	if err := s.validate.Struct(toolkit); err != nil {
		return nil, newError(CodeValidation, "invalid toolkit_id: %d", toolkit.ToolkitID)
	}
	if len(toolkit.Tools) == 0 {
		return nil, newError(CodeValidation, "toolkit must contain at least one tool")
	}

	tools := make([]model.Tool, len(toolkit.Tools))
	for i, tool := range toolkit.Tools {
		if tool.ToolkitID == 0 {
			tool.ToolkitID = toolkit.ToolkitID
		}
		if tool.ToolkitID != toolkit.ToolkitID {
			return nil, newError(CodeValidation, "tool %d belongs to toolkit %d, not %d", tool.ActionID, tool.ToolkitID, toolkit.ToolkitID)
		}
		if tool.ToolkitName == "" {
			tool.ToolkitName = toolkit.Name
		}
		if tool.ToolkitDescription == "" {
			tool.ToolkitDescription = toolkit.Description
		}
		tools[i] = tool
	}

	ids, err := s.UpsertTools(ctx, tools, namespace, 0)
	if err != nil {
		return ids, wrapError(err, CodeToolkitUpsert, "failed to upsert toolkit")
	}
	return ids, nil
}

// GetToolkitTools 列出工具包下的工具
//
// 索引没有按元数据列举的能力，这里用随机探测向量加 toolkit_id 过滤查询，
// 最多返回 ToolkitFetchLimit 条；超出上限的工具不会出现在结果中。
func (s *Service) GetToolkitTools(ctx context.Context, toolkitID int64, namespace string) ([]model.Tool, error) {
	if toolkitID <= 0 {
		return nil, newError(CodeValidation, "invalid toolkit_id: %d", toolkitID)
	}
	ns := s.namespace(namespace)

	stats, err := s.index.DescribeStats(ctx)
	if err != nil {
		return nil, wrapError(err, CodeToolkitQuery, "failed to get toolkit tools")
	}
	count := stats.VectorCount(ns)
	if count == 0 {
		return []model.Tool{}, nil
	}

	matches, err := s.index.Query(ctx, vectorstore.QueryRequest{
		Namespace:       ns,
		Vector:          s.probe(s.cfg.Dimension),
		TopK:            min(ToolkitFetchLimit, count),
		Filter:          TranslateFilters(map[string]any{FilterToolkitID: toolkitID}),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, wrapError(err, CodeToolkitQuery, "failed to get toolkit tools")
	}

	tools := make([]model.Tool, 0, len(matches))
	for _, m := range matches {
		tools = append(tools, DecodeMetadata(m.Metadata))
	}
	if len(tools) == ToolkitFetchLimit {
		logger.Warnf("Toolkit %d listing reached the %d tool limit in namespace %s", toolkitID, ToolkitFetchLimit, ns)
	}
	return tools, nil
}

// DeleteToolkit 删除工具包下的工具，返回删除数量（同样受 ToolkitFetchLimit 限制）
func (s *Service) DeleteToolkit(ctx context.Context, toolkitID int64, namespace string) (int, error) {
	tools, err := s.GetToolkitTools(ctx, toolkitID, namespace)
	if err != nil {
		return 0, wrapError(err, CodeToolkitDelete, "failed to delete toolkit")
	}
	if len(tools) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(tools))
	for i, tool := range tools {
		ids[i] = tool.ActionID
	}
	if _, err := s.DeleteTools(ctx, ids, namespace); err != nil {
		return 0, wrapError(err, CodeToolkitDelete, "failed to delete toolkit")
	}

	logger.Infof("Deleted toolkit %d (%d tools) from namespace %s", toolkitID, len(ids), s.namespace(namespace))
	return len(ids), nil
}
