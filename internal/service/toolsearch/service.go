// Package toolsearch 工具目录检索：将工具映射为向量记录，并提供写入、检索与工具包级操作
package toolsearch

import (
	"context"
	"math/rand/v2"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/go-playground/validator/v10"

	"github.com/ashwinyue/tool-search/internal/config"
	"github.com/ashwinyue/tool-search/internal/embedder"
	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// 默认参数
const (
	DefaultIndexName      = "tools-search-v1"
	DefaultNamespace      = "test"
	DefaultBatchSize      = 100
	DefaultTopK           = 5
	MaxTopK               = 50
	DefaultDimension      = 1536
	DefaultEmbeddingModel = "text-embedding-3-small"

	// ToolkitFetchLimit 工具包列举上限；超出部分不会返回
	ToolkitFetchLimit = 100
)

// Config 检索服务配置，构造后只读
type Config struct {
	IndexName      string
	Namespace      string
	Dimension      int
	EmbeddingModel string
	Metric         string
	Cloud          string
	Region         string
	BatchSize      int
	DefaultTopK    int
	MaxTopK        int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		IndexName:      DefaultIndexName,
		Namespace:      DefaultNamespace,
		Dimension:      DefaultDimension,
		EmbeddingModel: DefaultEmbeddingModel,
		Metric:         vectorstore.MetricCosine,
		Cloud:          "aws",
		Region:         "us-east-1",
		BatchSize:      DefaultBatchSize,
		DefaultTopK:    DefaultTopK,
		MaxTopK:        MaxTopK,
	}
}

// ConfigFrom 从应用配置构造
func ConfigFrom(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Index.Name != "" {
		c.IndexName = cfg.Index.Name
	}
	if cfg.Index.Namespace != "" {
		c.Namespace = cfg.Index.Namespace
	}
	if cfg.Index.Metric != "" {
		c.Metric = cfg.Index.Metric
	}
	if cfg.Index.Cloud != "" {
		c.Cloud = cfg.Index.Cloud
	}
	if cfg.Index.Region != "" {
		c.Region = cfg.Index.Region
	}
	if cfg.AI.Embedding.Dimensions > 0 {
		c.Dimension = cfg.AI.Embedding.Dimensions
	}
	if cfg.AI.Embedding.Model != "" {
		c.EmbeddingModel = cfg.AI.Embedding.Model
	}
	if cfg.Search.BatchSize > 0 {
		c.BatchSize = cfg.Search.BatchSize
	}
	if cfg.Search.DefaultTopK > 0 {
		c.DefaultTopK = cfg.Search.DefaultTopK
	}
	if cfg.Search.MaxTopK > 0 && cfg.Search.MaxTopK <= MaxTopK {
		c.MaxTopK = cfg.Search.MaxTopK
	}
	return c
}

// Service 工具检索服务
type Service struct {
	cfg      Config
	index    vectorstore.Index
	embedder embedding.Embedder
	validate *validator.Validate
	probe    func(dim int) []float32
}

// NewService 使用已就绪的索引与 Embedder 创建服务
func NewService(cfg Config, index vectorstore.Index, emb embedding.Embedder) *Service {
	def := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = def.Dimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.MaxTopK <= 0 || cfg.MaxTopK > MaxTopK {
		cfg.MaxTopK = def.MaxTopK
	}
	return &Service{
		cfg:      cfg,
		index:    index,
		embedder: emb,
		validate: validator.New(),
		probe:    randomVector,
	}
}

// New 确保索引存在后创建服务
func New(ctx context.Context, cfg Config, provider vectorstore.Provider, emb embedding.Embedder) (*Service, error) {
	if emb == nil {
		return nil, newError(CodeConfiguration, "embedding client is required")
	}
	if provider == nil {
		return nil, newError(CodeDependency, "vector index provider is required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}

	index, err := vectorstore.EnsureIndex(ctx, provider, vectorstore.IndexSpec{
		Name:      cfg.IndexName,
		Dimension: cfg.Dimension,
		Metric:    cfg.Metric,
		Cloud:     cfg.Cloud,
		Region:    cfg.Region,
	})
	if err != nil {
		return nil, wrapError(err, CodeInitialization, "failed to initialize tool vector store")
	}

	logger.Infof("Tool search ready: index=%s namespace=%s dimension=%d model=%s",
		cfg.IndexName, cfg.Namespace, cfg.Dimension, cfg.EmbeddingModel)
	return NewService(cfg, index, emb), nil
}

// Config 返回服务配置
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) namespace(ns string) string {
	if ns == "" {
		return s.cfg.Namespace
	}
	return ns
}

func (s *Service) embedOne(ctx context.Context, text string) ([]float32, error) {
	return embedder.EmbedOne(ctx, s.embedder, text, s.cfg.Dimension)
}

func (s *Service) embedMany(ctx context.Context, texts []string) ([][]float32, error) {
	return embedder.EmbedMany(ctx, s.embedder, texts, s.cfg.Dimension)
}

// randomVector 均匀分布的探测向量，仅用于纯过滤查询
func randomVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = rand.Float32()
	}
	return vec
}
