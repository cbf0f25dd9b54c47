package toolsearch

import (
	"context"
	"strconv"

	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// UpsertTool 写入单个工具，返回记录 ID
func (s *Service) UpsertTool(ctx context.Context, tool model.Tool, namespace string) (string, error) {
	if err := s.validateTool(tool); err != nil {
		return "", err
	}
	ns := s.namespace(namespace)

	vec, err := s.embedOne(ctx, BuildEmbeddingText(tool))
	if err != nil {
		return "", classifyError(err, CodeUpsert, "failed to upsert tool")
	}

	id := toolID(tool.ActionID)
	record := vectorstore.Vector{ID: id, Values: vec, Metadata: EncodeMetadata(tool)}
	if err := s.index.Upsert(ctx, ns, []vectorstore.Vector{record}); err != nil {
		return "", classifyError(err, CodeUpsert, "failed to upsert tool")
	}

	logger.Debugf("Upserted tool %s (%s) into namespace %s", id, tool.ToolName, ns)
	return id, nil
}

// UpsertTools 分批写入工具
//
// 每批一次向量化调用加一次索引写入，严格顺序执行。第 k 批失败时不再处理后续批次，
// 之前批次已提交的 ID 通过 Error.Committed 返回。batchSize <= 0 时使用配置值。
func (s *Service) UpsertTools(ctx context.Context, tools []model.Tool, namespace string, batchSize int) ([]string, error) {
	for _, tool := range tools {
		if err := s.validateTool(tool); err != nil {
			return nil, err
		}
	}
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}
	ns := s.namespace(namespace)

	ids := make([]string, 0, len(tools))
	for start := 0; start < len(tools); start += batchSize {
		end := min(start+batchSize, len(tools))
		chunk := tools[start:end]

		chunkIDs, err := s.upsertChunk(ctx, chunk, ns)
		if err != nil {
			logger.Warnf("Batch upsert aborted at tools[%d:%d] after %d committed: %v", start, end, len(ids), err)
			return ids, partialFailure(classifyError(err, CodeBatchUpsert, "failed to upsert tools"), ids)
		}
		ids = append(ids, chunkIDs...)
		logger.Debugf("Upserted tools[%d:%d] into namespace %s", start, end, ns)
	}

	logger.Infof("Upserted %d tools into namespace %s", len(ids), ns)
	return ids, nil
}

func (s *Service) upsertChunk(ctx context.Context, chunk []model.Tool, ns string) ([]string, error) {
	texts := make([]string, len(chunk))
	for i, tool := range chunk {
		texts[i] = BuildEmbeddingText(tool)
	}

	vectors, err := s.embedMany(ctx, texts)
	if err != nil {
		return nil, err
	}

	records := make([]vectorstore.Vector, len(chunk))
	ids := make([]string, len(chunk))
	for i, tool := range chunk {
		ids[i] = toolID(tool.ActionID)
		records[i] = vectorstore.Vector{ID: ids[i], Values: vectors[i], Metadata: EncodeMetadata(tool)}
	}

	if err := s.index.Upsert(ctx, ns, records); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) validateTool(tool model.Tool) error {
	if err := s.validate.Struct(tool); err != nil {
		return newError(CodeValidation, "invalid action_id: %d", tool.ActionID)
	}
	return nil
}

// partialFailure 在错误上附加已提交的 ID；未提交任何 ID 时原样返回
func partialFailure(err error, committed []string) error {
	if len(committed) == 0 {
		return err
	}
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	out := *e
	out.Committed = append([]string(nil), committed...)
	return &out
}

func toolID(actionID int64) string {
	return strconv.FormatInt(actionID, 10)
}
