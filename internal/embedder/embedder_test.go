package embedder

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/tool-search/internal/config"
)

// countingEmbedder 记录下游调用
type countingEmbedder struct {
	inner embedding.Embedder
	calls [][]string
	err   error
}

func (c *countingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	c.calls = append(c.calls, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.EmbedStrings(ctx, texts, opts...)
}

type fixedEmbedder struct {
	vectors [][]float64
}

func (f fixedEmbedder) EmbedStrings(context.Context, []string, ...embedding.Option) ([][]float64, error) {
	return f.vectors, nil
}

// ========== Placeholder 测试 ==========

func TestPlaceholderDeterministicAndNormalised(t *testing.T) {
	p := NewPlaceholder(32)
	ctx := context.Background()

	a, err := p.EmbedStrings(ctx, []string{"Pendle addLiquidity | Add liquidity"})
	require.NoError(t, err)
	b, err := p.EmbedStrings(ctx, []string{"Pendle addLiquidity | Add liquidity"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.Len(t, a[0], 32)

	var norm float64
	for _, v := range a[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestPlaceholderSharedTokensAreCloser(t *testing.T) {
	p := NewPlaceholder(256)
	vecs, err := p.EmbedStrings(context.Background(), []string{
		"swap tokens on uniswap",
		"swap tokens on sushiswap",
		"read the weather forecast",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestPlaceholderEmptyText(t *testing.T) {
	p := NewPlaceholder(8)
	vecs, err := p.EmbedStrings(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, 1.0, vecs[0][0])
	assert.Equal(t, 8, p.Dimension())
	assert.Equal(t, 384, NewPlaceholder(0).Dimension())
}

// ========== New 测试 ==========

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		cfg       config.EmbeddingConfig
		wantErr   bool
		wantPlace bool
	}{
		{"placeholder", config.EmbeddingConfig{Provider: config.ProviderPlaceholder, Dimensions: 16}, false, true},
		{"openai without key", config.EmbeddingConfig{Provider: config.ProviderOpenAI}, true, false},
		{"dashscope without key", config.EmbeddingConfig{Provider: config.ProviderDashScope}, true, false},
		{"unknown", config.EmbeddingConfig{Provider: "cohere"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(ctx, tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			if tt.wantPlace {
				assert.IsType(t, &Placeholder{}, e)
			}
		})
	}
}

// ========== EmbedMany 测试 ==========

func TestEmbedMany(t *testing.T) {
	ctx := context.Background()

	t.Run("converts to float32", func(t *testing.T) {
		vecs, err := EmbedMany(ctx, fixedEmbedder{vectors: [][]float64{{0.5, 0.25}, {1, 0}}}, []string{"a", "b"}, 2)
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{0.5, 0.25}, {1, 0}}, vecs)
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		c := &countingEmbedder{inner: NewPlaceholder(4)}
		vecs, err := EmbedMany(ctx, c, nil, 4)
		require.NoError(t, err)
		assert.Empty(t, vecs)
		assert.Empty(t, c.calls)
	})

	t.Run("provider failure", func(t *testing.T) {
		c := &countingEmbedder{err: errors.New("rate limited")}
		_, err := EmbedMany(ctx, c, []string{"a"}, 4)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmbedding))
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("count mismatch", func(t *testing.T) {
		_, err := EmbedMany(ctx, fixedEmbedder{vectors: [][]float64{{1}}}, []string{"a", "b"}, 0)
		assert.True(t, errors.Is(err, ErrEmbedding))
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := EmbedMany(ctx, fixedEmbedder{vectors: [][]float64{{}}}, []string{"a"}, 0)
		assert.True(t, errors.Is(err, ErrEmbedding))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := EmbedMany(ctx, fixedEmbedder{vectors: [][]float64{{1, 2, 3}}}, []string{"a"}, 2)
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})

	t.Run("embed one", func(t *testing.T) {
		vec, err := EmbedOne(ctx, NewPlaceholder(4), "hello", 4)
		require.NoError(t, err)
		assert.Len(t, vec, 4)
	})
}

// ========== CachedEmbedder 测试 ==========

func TestCachedEmbedder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingEmbedder{inner: NewPlaceholder(8)}
	cached := NewCachedEmbedder(inner, client, "test:", "m1", time.Hour)
	ctx := context.Background()

	first, err := cached.EmbedStrings(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, inner.calls, 1)

	second, err := cached.EmbedStrings(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 1, "fully cached call must not reach the provider")
	assert.Equal(t, first, second)

	third, err := cached.EmbedStrings(ctx, []string{"beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"gamma"}, inner.calls[1])
	assert.Equal(t, first[1], third[0])

	key := cached.key("alpha")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestCachedEmbedderDegradesWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	inner := &countingEmbedder{inner: NewPlaceholder(8)}
	cached := NewCachedEmbedder(inner, client, "test:", "m1", time.Hour)

	vecs, err := cached.EmbedStrings(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Len(t, inner.calls, 1)
}

func TestCachedEmbedderPropagatesProviderError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingEmbedder{err: errors.New("quota exceeded")}
	cached := NewCachedEmbedder(inner, client, "test:", "m1", time.Hour)

	_, err := cached.EmbedStrings(context.Background(), []string{"alpha"})
	assert.EqualError(t, err, "quota exceeded")
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	a := NewCachedEmbedder(nil, nil, "p:", "m1", 0)
	b := NewCachedEmbedder(nil, nil, "p:", "m2", 0)
	assert.NotEqual(t, a.key("x"), b.key("x"))
	assert.Equal(t, a.key("x"), a.key("x"))
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
