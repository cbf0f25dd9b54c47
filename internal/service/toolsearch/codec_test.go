package toolsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/testutil"
	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// ========== BuildEmbeddingText 测试 ==========

func TestBuildEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		tool model.Tool
		want string
	}{
		{
			name: "with parameters",
			tool: testutil.PendleToolkit().Tools[0],
			want: "Pendle addLiquidity | Provide liquidity to Pendle pools on EVM chains | params: chain, market, amount, slippage",
		},
		{
			name: "without parameters",
			tool: model.Tool{ToolkitName: "Uniswap", ToolName: "quote", Description: "Get a swap quote"},
			want: "Uniswap quote | Get a swap quote | params: none",
		},
		{
			name: "empty parameter list",
			tool: model.Tool{ToolkitName: "X", ToolName: "y", Description: "z", Parameters: []model.ToolParameter{}},
			want: "X y | z | params: none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildEmbeddingText(tt.tool))
		})
	}
}

func TestBuildEmbeddingTextDeterministic(t *testing.T) {
	tool := testutil.PendleToolkit().Tools[1]
	first := BuildEmbeddingText(tool)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildEmbeddingText(tool))
	}
}

// ========== 元数据编解码测试 ==========

func TestMetadataRoundTrip(t *testing.T) {
	for _, tool := range testutil.PendleToolkit().Tools {
		t.Run(tool.ToolName, func(t *testing.T) {
			assert.Equal(t, tool, DecodeMetadata(EncodeMetadata(tool)))
		})
	}
}

func TestEncodeMetadata(t *testing.T) {
	md := EncodeMetadata(testutil.PendleToolkit().Tools[0])

	assert.Equal(t, int64(1001), md[MetaActionID])
	assert.Equal(t, int64(79), md[MetaToolkitID])
	assert.Equal(t, "Pendle", md[MetaToolkitName])
	assert.Equal(t, []string{"chain", "market", "amount"}, md[MetaRequiredParams])

	params, ok := md[MetaParameters].(string)
	require.True(t, ok, "parameters must be stored as a string")
	assert.Contains(t, params, `{"name":"chain","type":"string","required":true,"description":"Target EVM chain"}`)

	empty := EncodeMetadata(model.Tool{ActionID: 1})
	assert.Equal(t, "[]", empty[MetaParameters])
	assert.Equal(t, []string{}, empty[MetaRequiredParams])
}

func TestMetadataToolkitDescription(t *testing.T) {
	tool := testutil.PendleToolkit().Tools[0]
	assert.NotContains(t, EncodeMetadata(tool), MetaToolkitDescription)

	tool.ToolkitDescription = "Yield trading"
	md := EncodeMetadata(tool)
	assert.Equal(t, "Yield trading", md[MetaToolkitDescription])
	assert.Equal(t, tool, DecodeMetadata(md))
}

func TestParseParameters(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []model.ToolParameter
	}{
		{
			name: "complete entry",
			in:   `[{"name":"a","type":"string","required":false,"description":"d"}]`,
			want: []model.ToolParameter{{Name: "a", Type: "string", Required: false, Description: "d"}},
		},
		{
			name: "description optional",
			in:   `[{"name":"a","type":"number","required":true}]`,
			want: []model.ToolParameter{{Name: "a", Type: "number", Required: true}},
		},
		{name: "missing type", in: `[{"name":"a","required":true}]`, want: []model.ToolParameter{}},
		{name: "missing required", in: `[{"name":"a","type":"string"}]`, want: []model.ToolParameter{}},
		{name: "name only", in: `[{"name":"a"}]`, want: []model.ToolParameter{}},
		{
			name: "one malformed entry empties the list",
			in:   `[{"name":"a","type":"string","required":true},{"name":"b"}]`,
			want: []model.ToolParameter{},
		},
		{
			name: "structured list missing required",
			in:   []any{map[string]any{"name": "chain", "type": "string"}},
			want: []model.ToolParameter{},
		},
		{name: "unsupported type", in: 42, want: []model.ToolParameter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseParameters(tt.in))
		})
	}
}

func TestDecodeMetadataLenient(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]any
		want model.Tool
	}{
		{
			name: "missing fields default",
			md:   map[string]any{},
			want: model.Tool{Parameters: []model.ToolParameter{}},
		},
		{
			name: "malformed parameters",
			md:   map[string]any{MetaActionID: int64(5), MetaParameters: "{not json"},
			want: model.Tool{ActionID: 5, Parameters: []model.ToolParameter{}},
		},
		{
			name: "parameters with wrong shape",
			md:   map[string]any{MetaParameters: `[{"type":"string"}]`},
			want: model.Tool{Parameters: []model.ToolParameter{}},
		},
		{
			name: "numbers decoded from JSON",
			md: map[string]any{
				MetaActionID:    float64(1002),
				MetaToolkitID:   float64(79),
				MetaToolName:    "removeLiquidity",
				MetaToolkitName: "Pendle",
			},
			want: model.Tool{ActionID: 1002, ToolkitID: 79, ToolName: "removeLiquidity", ToolkitName: "Pendle", Parameters: []model.ToolParameter{}},
		},
		{
			name: "structured parameter list",
			md: map[string]any{
				MetaParameters: []any{
					map[string]any{"name": "chain", "type": "string", "required": true},
				},
			},
			want: model.Tool{Parameters: []model.ToolParameter{{Name: "chain", Type: "string", Required: true}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeMetadata(tt.md))
		})
	}
}

// ========== TranslateFilters 测试 ==========

func TestTranslateFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
		want    vectorstore.Filter
	}{
		{
			name:    "empty",
			filters: map[string]any{},
			want:    nil,
		},
		{
			name:    "nil",
			filters: nil,
			want:    nil,
		},
		{
			name:    "scalar toolkit id",
			filters: map[string]any{"toolkit_id": 79},
			want:    vectorstore.Filter{"toolkit_id": map[string]any{"$in": []any{79}}},
		},
		{
			name:    "list toolkit id",
			filters: map[string]any{"toolkit_id": []any{79, 80}},
			want:    vectorstore.Filter{"toolkit_id": map[string]any{"$in": []any{79, 80}}},
		},
		{
			name:    "toolkit maps to toolkit_name",
			filters: map[string]any{"toolkit": "Pendle"},
			want:    vectorstore.Filter{"toolkit_name": map[string]any{"$in": []any{"Pendle"}}},
		},
		{
			name:    "single required param",
			filters: map[string]any{"required_params": "chain"},
			want:    vectorstore.Filter{"required_params": map[string]any{"$in": []any{"chain"}}},
		},
		{
			name:    "required params conjunction in input order",
			filters: map[string]any{"required_params": []string{"a", "b"}},
			want: vectorstore.Filter{"$and": []vectorstore.Filter{
				{"required_params": map[string]any{"$in": []any{"a"}}},
				{"required_params": map[string]any{"$in": []any{"b"}}},
			}},
		},
		{
			name:    "multiple keys",
			filters: map[string]any{"chain": "ethereum", "tool_name": []string{"swap"}},
			want: vectorstore.Filter{"$and": []vectorstore.Filter{
				{"tool_name": map[string]any{"$in": []any{"swap"}}},
				{"chain": map[string]any{"$in": []any{"ethereum"}}},
			}},
		},
		{
			name:    "name prefix and unknown keys ignored",
			filters: map[string]any{"name_prefix": "add", "color": "red"},
			want:    nil,
		},
		{
			name:    "zero values skipped",
			filters: map[string]any{"tool_name": "", "toolkit_id": 0, "chain": []any{}},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateFilters(tt.filters)
			if tt.want == nil {
				assert.True(t, got.IsEmpty())
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyPostFilters(t *testing.T) {
	matches := []vectorstore.Match{
		{ID: "1", Metadata: map[string]any{MetaToolName: "addLiquidity"}},
		{ID: "2", Metadata: map[string]any{MetaToolName: "removeLiquidity"}},
		{ID: "3", Metadata: map[string]any{MetaToolName: "addCollateral"}},
		{ID: "4"},
	}

	got := applyPostFilters(matches, map[string]any{"name_prefix": "add"})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Len(t, applyPostFilters(matches, nil), 4)
	assert.Len(t, applyPostFilters(matches, map[string]any{"toolkit_id": 79}), 4)
}

// ========== NormalizeScore 测试 ==========

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{1.0, 1.0},
		{-1.0, 0.0},
		{0.0, 0.5},
		{0.5, 0.75},
		{1.5, 1.0},
		{-3.0, 0.0},
		{0.123456, 0.5617},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeScore(tt.raw), "raw=%v", tt.raw)
	}
}
