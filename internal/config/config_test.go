package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== Load 测试 ==========

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tool-search", cfg.App.Name)
	assert.Equal(t, BackendElastic, cfg.Index.Backend)
	assert.Equal(t, "tools-search-v1", cfg.Index.Name)
	assert.Equal(t, "test", cfg.Index.Namespace)
	assert.Equal(t, "aws", cfg.Index.Cloud)
	assert.Equal(t, "us-east-1", cfg.Index.Region)
	assert.Equal(t, "text-embedding-3-small", cfg.AI.Embedding.Model)
	assert.Equal(t, 1536, cfg.AI.Embedding.Dimensions)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 50, cfg.Search.MaxTopK)
	assert.Equal(t, 100, cfg.Search.BatchSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Same(t, cfg, Get())
}

func TestLoadFileInheritsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
index:
  backend: memory
  namespace: prod
ai:
  embedding:
    provider: placeholder
    dimensions: 64
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Index.Backend)
	assert.Equal(t, "prod", cfg.Index.Namespace)
	assert.Equal(t, "tools-search-v1", cfg.Index.Name)
	assert.Equal(t, ProviderPlaceholder, cfg.AI.Embedding.Provider)
	assert.Equal(t, 64, cfg.AI.Embedding.Dimensions)
	assert.Equal(t, 100, cfg.Search.BatchSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_CLOUD", "gcp")
	t.Setenv("INDEX_REGION", "europe-west1")
	t.Setenv("ELASTIC_HOST", "http://es:9200")
	t.Setenv("TOOL_SEARCH_INDEX_NAMESPACE", "staging")
	t.Setenv("TOOL_SEARCH_SEARCH_BATCHSIZE", "25")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.Embedding.APIKey)
	assert.Equal(t, "gcp", cfg.Index.Cloud)
	assert.Equal(t, "europe-west1", cfg.Index.Region)
	assert.Equal(t, "http://es:9200", cfg.Elastic.Host)
	assert.Equal(t, "staging", cfg.Index.Namespace)
	assert.Equal(t, 25, cfg.Search.BatchSize)
}

// ========== Validate 测试 ==========

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Index:  IndexConfig{Backend: BackendMemory, Name: "tools"},
			AI:     AIConfig{Embedding: EmbeddingConfig{Provider: ProviderPlaceholder, Dimensions: 8}},
			Search: SearchConfig{DefaultTopK: 5, MaxTopK: 50, BatchSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"openai without key", func(c *Config) { c.AI.Embedding.Provider = ProviderOpenAI }, true},
		{"openai with key", func(c *Config) {
			c.AI.Embedding.Provider = ProviderOpenAI
			c.AI.Embedding.APIKey = "sk"
		}, false},
		{"ollama without base url", func(c *Config) { c.AI.Embedding.Provider = ProviderOllama }, true},
		{"ollama with base url", func(c *Config) {
			c.AI.Embedding.Provider = ProviderOllama
			c.AI.Embedding.BaseURL = "http://localhost:11434"
		}, false},
		{"unknown provider", func(c *Config) { c.AI.Embedding.Provider = "cohere" }, true},
		{"zero dimension", func(c *Config) { c.AI.Embedding.Dimensions = 0 }, true},
		{"unknown backend", func(c *Config) { c.Index.Backend = "pinecone" }, true},
		{"empty index name", func(c *Config) { c.Index.Name = "" }, true},
		{"default above max", func(c *Config) { c.Search.DefaultTopK = 60 }, true},
		{"zero batch size", func(c *Config) { c.Search.BatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestElasticAddresses(t *testing.T) {
	c := ElasticConfig{Host: "http://a:9200, http://b:9200,"}
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, c.Addresses())
}
