package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryProvider 内存索引管理器，用于本地开发与测试
type MemoryProvider struct {
	mu      sync.Mutex
	indexes map[string]*MemoryIndex
}

// NewMemoryProvider 创建内存索引管理器
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{indexes: make(map[string]*MemoryIndex)}
}

// HasIndex 检查索引是否存在
func (p *MemoryProvider) HasIndex(_ context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.indexes[name]
	return ok, nil
}

// CreateIndex 创建索引，已存在时不做任何事
func (p *MemoryProvider) CreateIndex(_ context.Context, spec IndexSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.indexes[spec.Name]; ok {
		return nil
	}
	p.indexes[spec.Name] = NewMemoryIndex(spec.Dimension, spec.Metric)
	return nil
}

// Index 获取索引句柄
func (p *MemoryProvider) Index(_ context.Context, name string) (Index, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.indexes[name]
	if !ok {
		return nil, errors.Wrapf(ErrIndexNotFound, "index %s", name)
	}
	return idx, nil
}

// MemoryIndex 内存向量索引，暴力计算相似度
type MemoryIndex struct {
	mu         sync.RWMutex
	dimension  int
	metric     string
	namespaces map[string]*memoryNamespace
}

// memoryNamespace 保留插入顺序，保证同分结果稳定
type memoryNamespace struct {
	order   []string
	vectors map[string]Vector
}

// NewMemoryIndex 创建内存索引
func NewMemoryIndex(dimension int, metric string) *MemoryIndex {
	if metric == "" {
		metric = MetricCosine
	}
	return &MemoryIndex{
		dimension:  dimension,
		metric:     metric,
		namespaces: make(map[string]*memoryNamespace),
	}
}

// Upsert 写入或覆盖向量
func (m *MemoryIndex) Upsert(_ context.Context, namespace string, vectors []Vector) error {
	for _, v := range vectors {
		if v.ID == "" {
			return errors.Wrap(ErrIndexRequest, "upsert: empty vector id")
		}
		if len(v.Values) != m.dimension {
			return errors.Wrapf(ErrDimensionMismatch, "upsert %s: got %d, want %d", v.ID, len(v.Values), m.dimension)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = &memoryNamespace{vectors: make(map[string]Vector)}
		m.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		if _, exists := ns.vectors[v.ID]; !exists {
			ns.order = append(ns.order, v.ID)
		}
		ns.vectors[v.ID] = copyVector(v)
	}
	return nil
}

// Query 按相似度降序返回 TopK 条命中
func (m *MemoryIndex) Query(_ context.Context, req QueryRequest) ([]Match, error) {
	if req.TopK <= 0 {
		return nil, errors.Wrapf(ErrIndexRequest, "query: invalid top_k %d", req.TopK)
	}
	if len(req.Vector) != m.dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "query: got %d, want %d", len(req.Vector), m.dimension)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.namespaces[req.Namespace]
	if !ok {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(ns.order))
	for _, id := range ns.order {
		v := ns.vectors[id]
		ok, err := req.Filter.Matches(v.Metadata)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		match := Match{ID: id, Score: m.score(req.Vector, v.Values)}
		if req.IncludeMetadata {
			match.Metadata = copyMetadata(v.Metadata)
		}
		if req.IncludeValues {
			match.Values = append([]float32(nil), v.Values...)
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

// Fetch 按 ID 获取向量，不存在的 ID 不出现在结果中
func (m *MemoryIndex) Fetch(_ context.Context, namespace string, ids []string) (map[string]Vector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Vector, len(ids))
	ns, ok := m.namespaces[namespace]
	if !ok {
		return out, nil
	}
	for _, id := range ids {
		if v, ok := ns.vectors[id]; ok {
			out[id] = copyVector(v)
		}
	}
	return out, nil
}

// Delete 按 ID 删除，不存在的 ID 忽略
func (m *MemoryIndex) Delete(_ context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil
	}
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := ns.vectors[id]; ok {
			delete(ns.vectors, id)
			removed[id] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return nil
	}
	order := ns.order[:0]
	for _, id := range ns.order {
		if _, gone := removed[id]; !gone {
			order = append(order, id)
		}
	}
	ns.order = order
	if len(ns.vectors) == 0 {
		delete(m.namespaces, namespace)
	}
	return nil
}

// DescribeStats 返回各命名空间的向量数量
func (m *MemoryIndex) DescribeStats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		Dimension:  m.dimension,
		Namespaces: make(map[string]NamespaceStats, len(m.namespaces)),
	}
	for name, ns := range m.namespaces {
		stats.Namespaces[name] = NamespaceStats{VectorCount: len(ns.vectors)}
		stats.TotalVectorCount += len(ns.vectors)
	}
	return stats, nil
}

func (m *MemoryIndex) score(a, b []float32) float32 {
	switch m.metric {
	case MetricDotProduct:
		return float32(dot(a, b))
	case MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	default:
		na, nb := math.Sqrt(dot(a, a)), math.Sqrt(dot(b, b))
		if na == 0 || nb == 0 {
			return 0
		}
		return float32(dot(a, b) / (na * nb))
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func copyVector(v Vector) Vector {
	return Vector{
		ID:       v.ID,
		Values:   append([]float32(nil), v.Values...),
		Metadata: copyMetadata(v.Metadata),
	}
}

func copyMetadata(md map[string]any) map[string]any {
	if md == nil {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
