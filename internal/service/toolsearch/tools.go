package toolsearch

import (
	"context"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// DeleteTool 按 action_id 删除，不检查是否存在
func (s *Service) DeleteTool(ctx context.Context, actionID int64, namespace string) error {
	if err := s.index.Delete(ctx, s.namespace(namespace), []string{toolID(actionID)}); err != nil {
		return wrapError(err, CodeDelete, "failed to delete tool")
	}
	return nil
}

// DeleteTools 批量删除，返回删除的记录 ID
func (s *Service) DeleteTools(ctx context.Context, actionIDs []int64, namespace string) ([]string, error) {
	ids := make([]string, len(actionIDs))
	for i, id := range actionIDs {
		ids[i] = toolID(id)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := s.index.Delete(ctx, s.namespace(namespace), ids); err != nil {
		return nil, wrapError(err, CodeBatchDelete, "failed to delete tools")
	}
	return ids, nil
}

// GetToolByID 按 action_id 获取；不存在时 found 为 false
func (s *Service) GetToolByID(ctx context.Context, actionID int64, namespace string) (*model.Tool, bool, error) {
	if actionID <= 0 {
		return nil, false, newError(CodeValidation, "invalid action_id: %d", actionID)
	}

	id := toolID(actionID)
	vectors, err := s.index.Fetch(ctx, s.namespace(namespace), []string{id})
	if err != nil {
		return nil, false, wrapError(err, CodeFetch, "failed to get tool by id")
	}
	v, ok := vectors[id]
	if !ok {
		return nil, false, nil
	}
	tool := DecodeMetadata(v.Metadata)
	return &tool, true, nil
}

// GetIndexStats 索引统计
func (s *Service) GetIndexStats(ctx context.Context) (*vectorstore.Stats, error) {
	stats, err := s.index.DescribeStats(ctx)
	if err != nil {
		return nil, wrapError(err, CodeStats, "failed to get tool index stats")
	}
	return stats, nil
}
