// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/pkg/errors"

	"github.com/ashwinyue/tool-search/internal/embedder"
	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// PendleToolkitID 示例工具包 ID
const PendleToolkitID = 79

// PendleToolkit 示例工具包：两个工具 1001 / 1002
func PendleToolkit() model.Toolkit {
	return model.Toolkit{
		ToolkitID:   PendleToolkitID,
		Name:        "Pendle",
		Description: "Pendle Protocol toolkit for yield trading on EVM chains",
		Tools: []model.Tool{
			{
				ActionID:    1001,
				ToolkitID:   PendleToolkitID,
				ToolName:    "addLiquidity",
				Description: "Provide liquidity to Pendle pools on EVM chains",
				ToolkitName: "Pendle",
				Parameters: []model.ToolParameter{
					{Name: "chain", Type: "string", Required: true, Description: "Target EVM chain"},
					{Name: "market", Type: "string", Required: true, Description: "Pendle market address"},
					{Name: "amount", Type: "number", Required: true},
					{Name: "slippage", Type: "number", Required: false, Description: "Max slippage in percent"},
				},
			},
			{
				ActionID:    1002,
				ToolkitID:   PendleToolkitID,
				ToolName:    "removeLiquidity",
				Description: "Withdraw liquidity from Pendle pools on EVM chains",
				ToolkitName: "Pendle",
				Parameters: []model.ToolParameter{
					{Name: "chain", Type: "string", Required: true},
					{Name: "market", Type: "string", Required: true},
					{Name: "lpAmount", Type: "number", Required: true, Description: "LP tokens to burn"},
				},
			},
		},
	}
}

// GenerateTools 生成 n 个属于同一工具包的工具，action_id 从 startID 开始
func GenerateTools(n int, toolkitID, startID int64) []model.Tool {
	tools := make([]model.Tool, n)
	for i := range tools {
		id := startID + int64(i)
		tools[i] = model.Tool{
			ActionID:    id,
			ToolkitID:   toolkitID,
			ToolName:    fmt.Sprintf("tool_%d", id),
			Description: fmt.Sprintf("Generated tool number %d", id),
			ToolkitName: fmt.Sprintf("toolkit_%d", toolkitID),
			Parameters: []model.ToolParameter{
				{Name: "input", Type: "string", Required: true},
			},
		}
	}
	return tools
}

// WriteJSON 将 v 写入临时目录下的 JSON 文件并返回路径
func WriteJSON(t *testing.T, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// RecordingEmbedder 记录每次调用的 Embedder，可注入失败
type RecordingEmbedder struct {
	mu    sync.Mutex
	inner embedding.Embedder
	calls [][]string
	// FailOn 第 n 次调用（从 1 开始）返回错误，0 表示不失败
	FailOn int
	Err    error
}

// NewRecordingEmbedder 基于占位 Embedder 创建
func NewRecordingEmbedder(dimension int) *RecordingEmbedder {
	return &RecordingEmbedder{inner: embedder.NewPlaceholder(dimension)}
}

// EmbedStrings 实现 embedding.Embedder
func (r *RecordingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), texts...))
	n := len(r.calls)
	r.mu.Unlock()

	if r.Err != nil && (r.FailOn == 0 || r.FailOn == n) {
		return nil, r.Err
	}
	return r.inner.EmbedStrings(ctx, texts, opts...)
}

// Calls 调用次数
func (r *RecordingEmbedder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Texts 第 i 次调用的文本
func (r *RecordingEmbedder) Texts(i int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

// ErrInjected 注入的索引失败
var ErrInjected = errors.New("injected failure")

// RecordingIndex 记录调用次数的索引装饰器，可让第 n 次 Upsert 失败
type RecordingIndex struct {
	vectorstore.Index

	mu           sync.Mutex
	UpsertCalls  int
	QueryCalls   int
	FetchCalls   int
	DeleteCalls  int
	StatsCalls   int
	FailUpsertOn int
	// Err 非空时替代默认的注入错误
	Err error
}

// NewRecordingIndex 包装索引
func NewRecordingIndex(inner vectorstore.Index) *RecordingIndex {
	return &RecordingIndex{Index: inner}
}

// Calls 全部调用次数
func (r *RecordingIndex) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpsertCalls + r.QueryCalls + r.FetchCalls + r.DeleteCalls + r.StatsCalls
}

func (r *RecordingIndex) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	r.mu.Lock()
	r.UpsertCalls++
	n := r.UpsertCalls
	r.mu.Unlock()

	if r.FailUpsertOn > 0 && n == r.FailUpsertOn {
		if r.Err != nil {
			return r.Err
		}
		return errors.Wrap(vectorstore.ErrIndexRequest, ErrInjected.Error())
	}
	return r.Index.Upsert(ctx, namespace, vectors)
}

func (r *RecordingIndex) Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	r.mu.Lock()
	r.QueryCalls++
	r.mu.Unlock()
	return r.Index.Query(ctx, req)
}

func (r *RecordingIndex) Fetch(ctx context.Context, namespace string, ids []string) (map[string]vectorstore.Vector, error) {
	r.mu.Lock()
	r.FetchCalls++
	r.mu.Unlock()
	return r.Index.Fetch(ctx, namespace, ids)
}

func (r *RecordingIndex) Delete(ctx context.Context, namespace string, ids []string) error {
	r.mu.Lock()
	r.DeleteCalls++
	r.mu.Unlock()
	return r.Index.Delete(ctx, namespace, ids)
}

func (r *RecordingIndex) DescribeStats(ctx context.Context) (*vectorstore.Stats, error) {
	r.mu.Lock()
	r.StatsCalls++
	r.mu.Unlock()
	return r.Index.DescribeStats(ctx)
}

// Ptr 返回 v 的指针
func Ptr[T any](v T) *T {
	return &v
}
