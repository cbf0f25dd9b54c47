package callback

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/embedding"
)

// tracedEmbedder 为每次向量化调用注入回调
//
// 已自行触发回调的组件（eino-ext 提供方）只注入 handler，避免事件重复。
type tracedEmbedder struct {
	inner    embedding.Embedder
	info     *callbacks.RunInfo
	handlers []callbacks.Handler
}

// WrapEmbedder 包装 Embedder，使其调用经过 handlers
func WrapEmbedder(inner embedding.Embedder, name string, handlers ...callbacks.Handler) embedding.Embedder {
	typ, _ := components.GetType(inner)
	return &tracedEmbedder{
		inner: inner,
		info: &callbacks.RunInfo{
			Name:      name,
			Type:      typ,
			Component: components.ComponentOfEmbedding,
		},
		handlers: handlers,
	}
}

func (t *tracedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	ctx = callbacks.InitCallbacks(ctx, t.info, t.handlers...)
	if components.IsCallbacksEnabled(t.inner) {
		return t.inner.EmbedStrings(ctx, texts, opts...)
	}

	ctx = callbacks.OnStart(ctx, &embedding.CallbackInput{Texts: texts})
	vecs, err := t.inner.EmbedStrings(ctx, texts, opts...)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, &embedding.CallbackOutput{Embeddings: vecs})
	return vecs, nil
}
