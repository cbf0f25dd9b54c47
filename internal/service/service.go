package service

import (
	"context"

	"github.com/cloudwego/eino/components/embedding"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/tool-search/internal/config"
	"github.com/ashwinyue/tool-search/internal/embedder"
	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/service/callback"
	"github.com/ashwinyue/tool-search/internal/service/toolsearch"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// Services 服务集合
type Services struct {
	Config     *config.Config
	ToolSearch *toolsearch.Service

	// Eino 组件
	Embedder   embedding.Embedder
	SearchTool einotool.InvokableTool

	// Redis 仅在开启向量缓存时非空
	Redis redis.UniversalClient
}

// NewServices 按配置装配 Embedder、向量索引与工具检索服务
func NewServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, toolsearch.WrapError(err, toolsearch.CodeConfiguration, "invalid configuration")
	}

	emb, err := embedder.New(ctx, cfg.AI.Embedding)
	if err != nil {
		code := toolsearch.CodeInitialization
		if errors.Is(err, config.ErrInvalidConfig) {
			code = toolsearch.CodeConfiguration
		}
		return nil, toolsearch.WrapError(err, code, "failed to create embedder")
	}
	emb = callback.WrapEmbedder(emb, cfg.AI.Embedding.Provider, callback.NewLogger(cfg.App.Debug))

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		redisClient = newRedisClient(cfg)
		emb = embedder.NewCachedEmbedder(emb, redisClient, cfg.Cache.KeyPrefix, cfg.AI.Embedding.Model, cfg.Cache.TTL)
		logger.Infof("Embedding cache enabled: redis=%s ttl=%s", cfg.Redis.GetAddr(), cfg.Cache.TTL)
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		closeRedis(redisClient)
		return nil, toolsearch.WrapError(err, toolsearch.CodeDependency, "failed to connect to vector index")
	}

	svc, err := toolsearch.New(ctx, toolsearch.ConfigFrom(cfg), provider, emb)
	if err != nil {
		closeRedis(redisClient)
		return nil, err
	}

	return &Services{
		Config:     cfg,
		ToolSearch: svc,
		Embedder:   emb,
		SearchTool: NewToolSearchTool(svc),
		Redis:      redisClient,
	}, nil
}

// Close 释放外部连接
func (s *Services) Close() error {
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// newRedisClient 创建 Redis 客户端
func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newProvider 创建向量索引管理器；ES 需要先连通
func newProvider(ctx context.Context, cfg *config.Config) (vectorstore.Provider, error) {
	if cfg.Index.Backend == config.BackendMemory {
		logger.Warnf("Using in-memory vector index, data will not survive a restart")
		return vectorstore.NewMemoryProvider(), nil
	}

	p, err := vectorstore.NewElasticProvider(vectorstore.ElasticConfig{
		Addresses:    cfg.Elastic.Addresses(),
		Username:     cfg.Elastic.Username,
		Password:     cfg.Elastic.Password,
		Refresh:      cfg.Elastic.Refresh,
		PingAttempts: cfg.Elastic.PingAttempts,
	})
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx, cfg.Elastic.PingAttempts); err != nil {
		return nil, err
	}
	return p, nil
}

func closeRedis(c redis.UniversalClient) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warnf("failed to close redis client: %v", err)
	}
}
