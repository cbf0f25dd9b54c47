package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// 索引后端
const (
	BackendElastic = "elastic"
	BackendMemory  = "memory"
)

// Embedding 提供方
const (
	ProviderOpenAI      = "openai"
	ProviderDashScope   = "dashscope"
	ProviderOllama      = "ollama"
	ProviderPlaceholder = "placeholder"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid configuration")

// Config 应用配置
type Config struct {
	App     AppConfig
	Server  ServerConfig
	Log     LogConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	Index   IndexConfig
	AI      AIConfig
	Search  SearchConfig
	Cache   CacheConfig
	Auth    AuthConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ElasticConfig Elasticsearch配置
type ElasticConfig struct {
	Host         string
	Username     string
	Password     string
	Refresh      string
	PingAttempts uint
}

// IndexConfig 向量索引配置
type IndexConfig struct {
	Backend   string
	Name      string
	Namespace string
	Metric    string
	Cloud     string
	Region    string
}

// AIConfig AI配置
type AIConfig struct {
	Embedding EmbeddingConfig
}

// EmbeddingConfig Embedding配置
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int
	Dimensions int
}

// SearchConfig 检索参数
type SearchConfig struct {
	DefaultTopK int
	MaxTopK     int
	BatchSize   int
}

// CacheConfig Embedding 缓存配置
type CacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	KeyPrefix string
}

// AuthConfig 认证配置，JWTSecret 为空时不启用认证
type AuthConfig struct {
	JWTSecret string
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("TOOL_SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindWellKnownEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// Validate 校验配置
func (c *Config) Validate() error {
	emb := c.AI.Embedding
	switch emb.Provider {
	case ProviderOpenAI, ProviderDashScope:
		if emb.APIKey == "" {
			return errors.Wrapf(ErrInvalidConfig, "embedding api key is required for provider %s", emb.Provider)
		}
	case ProviderOllama:
		if emb.BaseURL == "" {
			return errors.Wrap(ErrInvalidConfig, "embedding base url is required for provider ollama")
		}
	case ProviderPlaceholder:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unsupported embedding provider: %s", emb.Provider)
	}
	if emb.Dimensions <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "embedding dimensions must be positive, got %d", emb.Dimensions)
	}

	switch c.Index.Backend {
	case BackendElastic, BackendMemory:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unsupported index backend: %s", c.Index.Backend)
	}
	if c.Index.Name == "" {
		return errors.Wrap(ErrInvalidConfig, "index name is required")
	}

	if c.Search.MaxTopK <= 0 || c.Search.DefaultTopK <= 0 || c.Search.DefaultTopK > c.Search.MaxTopK {
		return errors.Wrapf(ErrInvalidConfig, "invalid top_k bounds: default %d, max %d", c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Search.BatchSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "batch size must be positive, got %d", c.Search.BatchSize)
	}
	return nil
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addresses 拆分逗号分隔的 ES 地址
func (c *ElasticConfig) Addresses() []string {
	var out []string
	for _, addr := range strings.Split(c.Host, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// bindWellKnownEnv 绑定不带前缀的通用环境变量
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"ai.embedding.apiKey": {"TOOL_SEARCH_AI_EMBEDDING_APIKEY", "OPENAI_API_KEY"},
		"index.cloud":         {"TOOL_SEARCH_INDEX_CLOUD", "INDEX_CLOUD", "PINECONE_CLOUD"},
		"index.region":        {"TOOL_SEARCH_INDEX_REGION", "INDEX_REGION", "PINECONE_REGION"},
		"elastic.host":        {"TOOL_SEARCH_ELASTIC_HOST", "ELASTIC_HOST"},
		"redis.host":          {"TOOL_SEARCH_REDIS_HOST", "REDIS_HOST"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "tool-search")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Elastic
	v.SetDefault("elastic.host", "http://localhost:9200")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.refresh", "wait_for")
	v.SetDefault("elastic.pingAttempts", 5)

	// Index
	v.SetDefault("index.backend", BackendElastic)
	v.SetDefault("index.name", "tools-search-v1")
	v.SetDefault("index.namespace", "test")
	v.SetDefault("index.metric", "cosine")
	v.SetDefault("index.cloud", "aws")
	v.SetDefault("index.region", "us-east-1")

	// AI
	v.SetDefault("ai.embedding.provider", ProviderOpenAI)
	v.SetDefault("ai.embedding.model", "text-embedding-3-small")
	v.SetDefault("ai.embedding.apiKey", "")
	v.SetDefault("ai.embedding.baseUrl", "")
	v.SetDefault("ai.embedding.timeout", 30)
	v.SetDefault("ai.embedding.dimensions", 1536)

	// Search
	v.SetDefault("search.defaultTopK", 5)
	v.SetDefault("search.maxTopK", 50)
	v.SetDefault("search.batchSize", 100)

	// Cache
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.keyPrefix", "tool-search:emb:")

	// Auth
	v.SetDefault("auth.jwtSecret", "")
}
