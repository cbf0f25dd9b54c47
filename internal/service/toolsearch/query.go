package toolsearch

import (
	"context"
	"math"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// maxSampleTools 工具包搜索结果中的示例工具数量
const maxSampleTools = 3

// QueryTools 语义 + 过滤检索工具
//
// 没有 query 文本时使用随机探测向量执行纯过滤查询，所有结果的分数固定为 1.0。
func (s *Service) QueryTools(ctx context.Context, req model.ToolSearchRequest, namespace string) ([]model.ToolSearchResponse, error) {
	matches, semantic, err := s.search(ctx, req, namespace, CodeQuery, "failed to query tools")
	if err != nil {
		return nil, err
	}

	results := make([]model.ToolSearchResponse, 0, len(matches))
	for _, m := range matches {
		tool := DecodeMetadata(m.Metadata)
		score := 1.0
		if semantic {
			score = NormalizeScore(float64(m.Score))
		}
		results = append(results, model.ToolSearchResponse{
			ToolName:    tool.ToolName,
			ActionID:    tool.ActionID,
			ToolkitID:   tool.ToolkitID,
			Description: tool.Description,
			Parameters:  tool.Parameters,
			Score:       score,
		})
	}
	return results, nil
}

// SearchToolkits 检索工具后按工具包聚合，保持首次出现的顺序
func (s *Service) SearchToolkits(ctx context.Context, req model.ToolkitSearchRequest, namespace string) ([]model.ToolkitSearchResponse, error) {
	matches, semantic, err := s.search(ctx, req, namespace, CodeToolkitQuery, "failed to search toolkits")
	if err != nil {
		return nil, err
	}

	var order []int64
	groups := make(map[int64]*model.ToolkitSearchResponse)
	for _, m := range matches {
		tool := DecodeMetadata(m.Metadata)
		score := 1.0
		if semantic {
			score = NormalizeScore(float64(m.Score))
		}

		g, ok := groups[tool.ToolkitID]
		if !ok {
			g = &model.ToolkitSearchResponse{
				ToolkitID:   tool.ToolkitID,
				Name:        tool.ToolkitName,
				Description: tool.ToolkitDescription,
				SampleTools: []string{},
			}
			groups[tool.ToolkitID] = g
			order = append(order, tool.ToolkitID)
		}
		g.ToolsCount++
		if len(g.SampleTools) < maxSampleTools {
			g.SampleTools = append(g.SampleTools, tool.ToolName)
		}
		g.Score = max(g.Score, score)
	}

	results := make([]model.ToolkitSearchResponse, 0, len(order))
	for _, id := range order {
		results = append(results, *groups[id])
	}
	return results, nil
}

// NormalizeScore 将 [-1, 1] 的 cosine 相似度映射到 [0, 1]，保留 4 位小数
func NormalizeScore(raw float64) float64 {
	score := (raw + 1) / 2
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*10000) / 10000
}

// search 执行一次索引查询；semantic 表示结果分数是否有意义
func (s *Service) search(ctx context.Context, req model.ToolSearchRequest, namespace string, code ErrorCode, action string) ([]vectorstore.Match, bool, error) {
	req, err := s.normalizeRequest(req)
	if err != nil {
		return nil, false, err
	}
	ns := s.namespace(namespace)

	semantic := req.Query != ""
	var vector []float32
	if semantic {
		vector, err = s.embedOne(ctx, req.Query)
		if err != nil {
			return nil, false, classifyError(err, code, action)
		}
	} else {
		vector = s.probe(s.cfg.Dimension)
	}

	matches, err := s.index.Query(ctx, vectorstore.QueryRequest{
		Namespace:       ns,
		Vector:          vector,
		TopK:            *req.TopK,
		Filter:          TranslateFilters(req.Filters),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, false, classifyError(err, code, action)
	}

	return applyPostFilters(matches, req.Filters), semantic, nil
}

// normalizeRequest 应用默认 top_k 并校验，校验在任何网络调用之前完成
func (s *Service) normalizeRequest(req model.ToolSearchRequest) (model.ToolSearchRequest, error) {
	if req.Query == "" && len(req.Filters) == 0 {
		return req, newError(CodeValidation, "either query or filters must be provided")
	}
	topK := s.cfg.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	req.TopK = &topK
	if err := s.validate.Struct(req); err != nil || topK > s.cfg.MaxTopK {
		return req, newError(CodeValidation, "top_k must be between 1 and %d, got %d", s.cfg.MaxTopK, topK)
	}
	return req, nil
}
