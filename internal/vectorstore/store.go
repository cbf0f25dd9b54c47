// Package vectorstore 定义向量索引能力（upsert/query/fetch/delete/stats）
// 以及 Elasticsearch 与内存两种实现
package vectorstore

import (
	"context"

	"github.com/pkg/errors"
)

// 相似度度量
const (
	MetricCosine     = "cosine"
	MetricDotProduct = "dotproduct"
	MetricEuclidean  = "euclidean"
)

// Vector 向量记录，按 ID 在命名空间内寻址
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match 查询命中，Score 为原始相似度（cosine 时范围 [-1, 1]）
type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryRequest 向量查询请求
type QueryRequest struct {
	Namespace       string
	Vector          []float32
	TopK            int
	Filter          Filter
	IncludeMetadata bool
	IncludeValues   bool
}

// NamespaceStats 命名空间统计
type NamespaceStats struct {
	VectorCount int `json:"vector_count"`
}

// Stats 索引统计
type Stats struct {
	Dimension        int                       `json:"dimension"`
	TotalVectorCount int                       `json:"total_vector_count"`
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
}

// VectorCount 返回命名空间内的向量数量，不存在时为 0
func (s *Stats) VectorCount(namespace string) int {
	if s == nil || s.Namespaces == nil {
		return 0
	}
	return s.Namespaces[namespace].VectorCount
}

// IndexSpec 创建索引参数
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// Index 单个向量索引的操作集合
type Index interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Query(ctx context.Context, req QueryRequest) ([]Match, error)
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]Vector, error)
	Delete(ctx context.Context, namespace string, ids []string) error
	DescribeStats(ctx context.Context) (*Stats, error)
}

// Provider 索引管理（存在性检查、创建、获取句柄）
type Provider interface {
	HasIndex(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, spec IndexSpec) error
	Index(ctx context.Context, name string) (Index, error)
}

// EnsureIndex 索引不存在时按 spec 创建，然后返回索引句柄
func EnsureIndex(ctx context.Context, p Provider, spec IndexSpec) (Index, error) {
	if spec.Name == "" {
		return nil, errors.New("index name is required")
	}
	if spec.Dimension <= 0 {
		return nil, errors.Wrapf(ErrDimensionMismatch, "invalid dimension %d", spec.Dimension)
	}
	if spec.Metric == "" {
		spec.Metric = MetricCosine
	}

	exists, err := p.HasIndex(ctx, spec.Name)
	if err != nil {
		return nil, errors.WithMessagef(err, "check index %s", spec.Name)
	}
	if !exists {
		if err := p.CreateIndex(ctx, spec); err != nil {
			return nil, errors.WithMessagef(err, "create index %s", spec.Name)
		}
	}
	return p.Index(ctx, spec.Name)
}
