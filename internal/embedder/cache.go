package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/tool-search/internal/logger"
)

// CachedEmbedder 基于 Redis 的向量缓存
//
// 命中的文本不再调用下游，未命中的文本合并为一次调用后回写。
// Redis 异常只记录日志，直接回落到下游 Embedder。
type CachedEmbedder struct {
	inner  embedding.Embedder
	client redis.UniversalClient
	prefix string
	model  string
	ttl    time.Duration
}

var _ embedding.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder 创建带缓存的 Embedder；model 参与缓存键，避免换模型后读到旧向量
func NewCachedEmbedder(inner embedding.Embedder, client redis.UniversalClient, prefix, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		client: client,
		prefix: prefix,
		model:  model,
		ttl:    ttl,
	}
}

// EmbedStrings 实现 embedding.Embedder
func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}

	cached, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warnf("embedding cache read failed, falling back to provider: %v", err)
		return c.inner.EmbedStrings(ctx, texts, opts...)
	}

	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string
	for i, v := range cached {
		if vec, ok := decodeCached(v); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}

	if len(missTexts) == 0 {
		logger.Debugf("embedding cache hit for all %d texts", len(texts))
		return out, nil
	}

	fresh, err := c.inner.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		// 数量不一致交给调用方校验
		return fresh, nil
	}

	pipe := c.client.Pipeline()
	for j, i := range missIdx {
		out[i] = fresh[j]
		data, err := json.Marshal(fresh[j])
		if err != nil {
			continue
		}
		pipe.Set(ctx, keys[i], data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warnf("embedding cache write failed: %v", err)
	}

	logger.Debugf("embedding cache: %d hits, %d misses", len(texts)-len(missTexts), len(missTexts))
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + c.model + ":" + hex.EncodeToString(sum[:])
}

func decodeCached(v any) ([]float64, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal([]byte(s), &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}
