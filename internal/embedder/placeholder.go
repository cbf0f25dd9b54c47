package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// Placeholder 确定性的本地 Embedder，不依赖网络
//
// 文本按词做特征哈希后 L2 归一化，共享词越多的文本相似度越高，
// 适用于本地开发与测试。
type Placeholder struct {
	dimension int
}

var _ embedding.Embedder = (*Placeholder)(nil)

// NewPlaceholder 创建占位 Embedder
func NewPlaceholder(dimension int) *Placeholder {
	if dimension <= 0 {
		dimension = 384
	}
	return &Placeholder{dimension: dimension}
}

// Dimension 向量维度
func (p *Placeholder) Dimension() int {
	return p.dimension
}

// EmbedStrings 实现 embedding.Embedder
func (p *Placeholder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = p.embed(text)
	}
	return out, nil
}

func (p *Placeholder) embed(text string) []float64 {
	vec := make([]float64, p.dimension)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dimension))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
