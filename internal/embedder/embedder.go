// Package embedder 文本向量化：eino Embedder 的构造、占位实现、Redis 缓存以及 float32 转换
package embedder

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/embedding/ollama"
	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/pkg/errors"

	"github.com/ashwinyue/tool-search/internal/config"
)

var (
	// ErrEmbedding 向量化服务调用失败
	ErrEmbedding = errors.New("embedding request failed")
	// ErrDimensionMismatch 返回向量维度与配置不一致
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// New 按配置创建 Embedder
func New(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	var timeout time.Duration
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	var dims *int
	if cfg.Dimensions > 0 {
		d := cfg.Dimensions
		dims = &d
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, errors.Wrap(config.ErrInvalidConfig, "OPENAI_API_KEY is required for the openai embedding provider")
		}
		return openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: dims,
			Timeout:    timeout,
		})

	case config.ProviderDashScope:
		if cfg.APIKey == "" {
			return nil, errors.Wrap(config.ErrInvalidConfig, "api key is required for the dashscope embedding provider")
		}
		model := cfg.Model
		if model == "" {
			model = "text-embedding-v3"
		}
		return dashscope.NewEmbedder(ctx, &dashscope.EmbeddingConfig{
			APIKey:     cfg.APIKey,
			Model:      model,
			Dimensions: dims,
			Timeout:    timeout,
		})

	case config.ProviderOllama:
		return ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})

	case config.ProviderPlaceholder:
		return NewPlaceholder(cfg.Dimensions), nil

	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "unsupported embedding provider: %s", cfg.Provider)
	}
}

// EmbedOne 向量化单条文本
func EmbedOne(ctx context.Context, e embedding.Embedder, text string, dimension int) ([]float32, error) {
	vectors, err := EmbedMany(ctx, e, []string{text}, dimension)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany 一次调用向量化多条文本，并校验数量与维度（dimension <= 0 时不校验维度）
func EmbedMany(ctx context.Context, e embedding.Embedder, texts []string, dimension int) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	raw, err := e.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, errors.Wrapf(ErrEmbedding, "%v", err)
	}
	if len(raw) != len(texts) {
		return nil, errors.Wrapf(ErrEmbedding, "got %d vectors for %d texts", len(raw), len(texts))
	}

	out := make([][]float32, len(raw))
	for i, vec := range raw {
		if len(vec) == 0 {
			return nil, errors.Wrapf(ErrEmbedding, "empty vector for text %d", i)
		}
		if dimension > 0 && len(vec) != dimension {
			return nil, errors.Wrapf(ErrDimensionMismatch, "embedding: got %d, want %d", len(vec), dimension)
		}
		out[i] = toFloat32(vec)
	}
	return out, nil
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
