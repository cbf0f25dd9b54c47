package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"

	"github.com/ashwinyue/tool-search/internal/logger"
)

// ES 文档字段
const (
	esFieldNamespace = "namespace"
	esFieldVectorID  = "vector_id"
	esFieldEmbedding = "embedding"
	esFieldMetadata  = "metadata"

	// 统计聚合的命名空间上限
	esMaxNamespaces = 10000
)

// ElasticConfig Elasticsearch 连接配置
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	// Refresh 写入后的刷新策略（"true" / "wait_for" / "false"）
	Refresh string
	// PingAttempts 启动时连接重试次数
	PingAttempts uint
}

// ElasticProvider 基于 Elasticsearch dense_vector 的索引管理器
type ElasticProvider struct {
	client  *elasticsearch.Client
	refresh string
}

// NewElasticProvider 创建 ES 索引管理器
func NewElasticProvider(cfg ElasticConfig) (*ElasticProvider, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}
	refresh := cfg.Refresh
	if refresh == "" {
		refresh = "wait_for"
	}
	return &ElasticProvider{client: client, refresh: refresh}, nil
}

// Ping 以指数退避检查集群可用性
func (p *ElasticProvider) Ping(ctx context.Context, attempts uint) error {
	if attempts == 0 {
		attempts = 1
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		res, err := esapi.PingRequest{}.Do(ctx, p.client)
		if err != nil {
			return struct{}{}, requestError("ping", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return struct{}{}, requestError("ping", res.String())
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Warnf("Elasticsearch not reachable: %v. Retrying in %s...", err, d)
		}),
	)
	return err
}

// HasIndex 检查索引是否存在
func (p *ElasticProvider) HasIndex(ctx context.Context, name string) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, p.client)
	if err != nil {
		return false, requestError("indices.exists", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, requestError("indices.exists", res.String())
	}
}

// CreateIndex 创建带 dense_vector 映射的索引
func (p *ElasticProvider) CreateIndex(ctx context.Context, spec IndexSpec) error {
	body, err := json.Marshal(indexMapping(spec))
	if err != nil {
		return errors.Wrap(err, "failed to marshal mapping")
	}

	res, err := esapi.IndicesCreateRequest{Index: spec.Name, Body: bytes.NewReader(body)}.Do(ctx, p.client)
	if err != nil {
		return requestError("indices.create", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return requestError("indices.create", res.String())
	}

	logger.Infof("Index %s created with %d dimensions (%s)", spec.Name, spec.Dimension, spec.Metric)
	return nil
}

// Index 获取索引句柄，维度从映射中读取
func (p *ElasticProvider) Index(ctx context.Context, name string) (Index, error) {
	res, err := esapi.IndicesGetMappingRequest{Index: []string{name}}.Do(ctx, p.client)
	if err != nil {
		return nil, requestError("indices.get_mapping", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrIndexNotFound, "index %s", name)
	}
	if res.IsError() {
		return nil, requestError("indices.get_mapping", res.String())
	}

	var mappings map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Dims       int    `json:"dims"`
				Similarity string `json:"similarity"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mappings); err != nil {
		return nil, requestError("indices.get_mapping", err)
	}

	idx := &ElasticIndex{client: p.client, name: name, refresh: p.refresh, metric: MetricCosine}
	if m, ok := mappings[name]; ok {
		field := m.Mappings.Properties[esFieldEmbedding]
		idx.dimension = field.Dims
		idx.metric = metricFromSimilarity(field.Similarity)
	}
	return idx, nil
}

// ElasticIndex 单个 ES 索引；命名空间通过 namespace 字段隔离，文档 _id 为 namespace/id
type ElasticIndex struct {
	client    *elasticsearch.Client
	name      string
	refresh   string
	dimension int
	metric    string
}

// Upsert 通过 _bulk index 写入
func (e *ElasticIndex) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, v := range vectors {
		if e.dimension > 0 && len(v.Values) != e.dimension {
			return errors.Wrapf(ErrDimensionMismatch, "upsert %s: got %d, want %d", v.ID, len(v.Values), e.dimension)
		}
		action := map[string]any{"index": map[string]any{"_index": e.name, "_id": docID(namespace, v.ID)}}
		doc := map[string]any{
			esFieldNamespace: namespace,
			esFieldVectorID:  v.ID,
			esFieldEmbedding: v.Values,
			esFieldMetadata:  v.Metadata,
		}
		if err := enc.Encode(action); err != nil {
			return errors.Wrap(err, "failed to encode bulk action")
		}
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode bulk document")
		}
	}

	return e.bulk(ctx, "bulk.index", &buf, false)
}

// Query 执行 kNN 查询，ES 的 cosine 分数 (1+cos)/2 会换算回原始 cosine
func (e *ElasticIndex) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	if req.TopK <= 0 {
		return nil, errors.Wrapf(ErrIndexRequest, "query: invalid top_k %d", req.TopK)
	}
	if e.dimension > 0 && len(req.Vector) != e.dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "query: got %d, want %d", len(req.Vector), e.dimension)
	}

	filter, err := e.namespaceFilter(req.Namespace, req.Filter)
	if err != nil {
		return nil, err
	}

	source := []string{esFieldVectorID}
	if req.IncludeMetadata {
		source = append(source, esFieldMetadata)
	}
	if req.IncludeValues {
		source = append(source, esFieldEmbedding)
	}

	body := map[string]any{
		"size": req.TopK,
		"knn": map[string]any{
			"field":          esFieldEmbedding,
			"query_vector":   req.Vector,
			"k":              req.TopK,
			"num_candidates": max(100, req.TopK*10),
			"filter":         filter,
		},
		"_source": source,
	}

	var resp esSearchResponse
	if err := e.search(ctx, body, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		m := Match{
			ID:    hit.Source.VectorID,
			Score: e.rawScore(hit.Score),
		}
		if req.IncludeMetadata {
			m.Metadata = hit.Source.Metadata
		}
		if req.IncludeValues {
			m.Values = hit.Source.Embedding
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Fetch 通过 _mget 按 ID 获取
func (e *ElasticIndex) Fetch(ctx context.Context, namespace string, ids []string) (map[string]Vector, error) {
	out := make(map[string]Vector, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	docIDs := make([]string, len(ids))
	for i, id := range ids {
		docIDs[i] = docID(namespace, id)
	}
	body, err := json.Marshal(map[string]any{"ids": docIDs})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal mget body")
	}

	res, err := esapi.MgetRequest{Index: e.name, Body: bytes.NewReader(body)}.Do(ctx, e.client)
	if err != nil {
		return nil, requestError("mget", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, requestError("mget", res.String())
	}

	var resp struct {
		Docs []struct {
			Found  bool     `json:"found"`
			Source esSource `json:"_source"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, requestError("mget", err)
	}

	for _, doc := range resp.Docs {
		if !doc.Found {
			continue
		}
		out[doc.Source.VectorID] = Vector{
			ID:       doc.Source.VectorID,
			Values:   doc.Source.Embedding,
			Metadata: doc.Source.Metadata,
		}
	}
	return out, nil
}

// Delete 通过 _bulk delete 删除，不存在的文档不算失败
func (e *ElasticIndex) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		action := map[string]any{"delete": map[string]any{"_index": e.name, "_id": docID(namespace, id)}}
		if err := enc.Encode(action); err != nil {
			return errors.Wrap(err, "failed to encode bulk action")
		}
	}
	return e.bulk(ctx, "bulk.delete", &buf, true)
}

// DescribeStats 用 terms 聚合统计每个命名空间的文档数
func (e *ElasticIndex) DescribeStats(ctx context.Context) (*Stats, error) {
	body := map[string]any{
		"size":             0,
		"track_total_hits": true,
		"aggs": map[string]any{
			"namespaces": map[string]any{
				"terms": map[string]any{"field": esFieldNamespace, "size": esMaxNamespaces},
			},
		},
	}

	var resp esSearchResponse
	if err := e.search(ctx, body, &resp); err != nil {
		return nil, err
	}

	stats := &Stats{
		Dimension:  e.dimension,
		Namespaces: make(map[string]NamespaceStats),
	}
	for _, b := range resp.Aggregations.Namespaces.Buckets {
		stats.Namespaces[b.Key] = NamespaceStats{VectorCount: b.DocCount}
		stats.TotalVectorCount += b.DocCount
	}
	return stats, nil
}

func (e *ElasticIndex) search(ctx context.Context, body map[string]any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal search body")
	}

	res, err := esapi.SearchRequest{Index: []string{e.name}, Body: bytes.NewReader(data)}.Do(ctx, e.client)
	if err != nil {
		return requestError("search", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrIndexNotFound, "index %s", e.name)
	}
	if res.IsError() {
		return requestError("search", res.String())
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return requestError("search", err)
	}
	return nil
}

func (e *ElasticIndex) bulk(ctx context.Context, op string, body io.Reader, ignoreNotFound bool) error {
	res, err := esapi.BulkRequest{Index: e.name, Body: body, Refresh: e.refresh}.Do(ctx, e.client)
	if err != nil {
		return requestError(op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return requestError(op, res.String())
	}

	var resp struct {
		Errors bool                         `json:"errors"`
		Items  []map[string]esBulkItemResult `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return requestError(op, err)
	}
	if !resp.Errors {
		return nil
	}

	for _, item := range resp.Items {
		for _, result := range item {
			if result.Status < 300 || (ignoreNotFound && result.Status == http.StatusNotFound) {
				continue
			}
			return requestError(op, errors.Errorf("item %s: status %d: %s", result.ID, result.Status, result.Error.Reason))
		}
	}
	return nil
}

// namespaceFilter 命名空间条件与业务过滤条件合取后转为 ES 查询
func (e *ElasticIndex) namespaceFilter(namespace string, f Filter) (map[string]any, error) {
	clauses := []any{map[string]any{"term": map[string]any{esFieldNamespace: namespace}}}
	if !f.IsEmpty() {
		q, err := toESQuery(f)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, q)
	}
	return map[string]any{"bool": map[string]any{"filter": clauses}}, nil
}

func (e *ElasticIndex) rawScore(score float64) float32 {
	if e.metric == MetricCosine {
		return float32(2*score - 1)
	}
	return float32(score)
}

// toESQuery 将过滤语法转换为 ES bool/terms 查询
func toESQuery(f Filter) (map[string]any, error) {
	clauses := make([]any, 0, len(f))
	for _, key := range sortedKeys(f) {
		cond := f[key]
		switch key {
		case OpAnd, OpOr:
			subs, err := subFilters(cond)
			if err != nil {
				return nil, err
			}
			inner := make([]any, 0, len(subs))
			for _, s := range subs {
				q, err := toESQuery(s)
				if err != nil {
					return nil, err
				}
				inner = append(inner, q)
			}
			if key == OpAnd {
				clauses = append(clauses, map[string]any{"bool": map[string]any{"filter": inner}})
			} else {
				clauses = append(clauses, map[string]any{"bool": map[string]any{"should": inner, "minimum_should_match": 1}})
			}
			continue
		}

		field := esFieldMetadata + "." + key
		ops, isOps := asMap(cond)
		if !isOps {
			clauses = append(clauses, map[string]any{"term": map[string]any{field: cond}})
			continue
		}
		for _, op := range sortedKeys(ops) {
			switch op {
			case OpIn:
				values, ok := toSlice(ops[op])
				if !ok {
					return nil, errors.Wrapf(ErrInvalidFilter, "%s on %q expects a list", OpIn, key)
				}
				clauses = append(clauses, map[string]any{"terms": map[string]any{field: values}})
			case OpEq:
				clauses = append(clauses, map[string]any{"term": map[string]any{field: ops[op]}})
			default:
				return nil, errors.Wrapf(ErrInvalidFilter, "unsupported operator %q", op)
			}
		}
	}

	if len(clauses) == 1 {
		return clauses[0].(map[string]any), nil
	}
	return map[string]any{"bool": map[string]any{"filter": clauses}}, nil
}

func indexMapping(spec IndexSpec) map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				esFieldNamespace: map[string]any{"type": "keyword"},
				esFieldVectorID:  map[string]any{"type": "keyword"},
				esFieldEmbedding: map[string]any{
					"type":       "dense_vector",
					"dims":       spec.Dimension,
					"index":      true,
					"similarity": similarityFromMetric(spec.Metric),
				},
				esFieldMetadata: map[string]any{
					"properties": map[string]any{
						"action_id":           map[string]any{"type": "long"},
						"toolkit_id":          map[string]any{"type": "long"},
						"tool_name":           map[string]any{"type": "keyword"},
						"toolkit_name":        map[string]any{"type": "keyword"},
						"toolkit_description": map[string]any{"type": "text", "index": false},
						"description":         map[string]any{"type": "text"},
						"parameters":          map[string]any{"type": "keyword", "index": false, "doc_values": false},
						"required_params":     map[string]any{"type": "keyword"},
						"chain":               map[string]any{"type": "keyword"},
					},
				},
			},
		},
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
	}
}

func similarityFromMetric(metric string) string {
	switch metric {
	case MetricDotProduct:
		return "dot_product"
	case MetricEuclidean:
		return "l2_norm"
	default:
		return "cosine"
	}
}

func metricFromSimilarity(similarity string) string {
	switch similarity {
	case "dot_product", "max_inner_product":
		return MetricDotProduct
	case "l2_norm":
		return MetricEuclidean
	default:
		return MetricCosine
	}
}

func docID(namespace, id string) string {
	return namespace + "/" + id
}

type esSource struct {
	VectorID  string         `json:"vector_id"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  float64  `json:"_score"`
			Source esSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Namespaces struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"namespaces"`
	} `json:"aggregations"`
}

type esBulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}
