package toolsearch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/tool-search/internal/model"
	"github.com/ashwinyue/tool-search/internal/testutil"
)

func TestLoadToolsFromJSON(t *testing.T) {
	want := testutil.PendleToolkit().Tools
	path := testutil.WriteJSON(t, "tools.json", want)

	tools, err := LoadToolsFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, want, tools)
}

func TestLoadToolkitFromJSONPropagatesToolkitFields(t *testing.T) {
	raw := map[string]any{
		"toolkit_id":  79,
		"name":        "Pendle",
		"description": "Pendle Protocol toolkit",
		"tools": []map[string]any{
			{"action_id": 1001, "tool_name": "addLiquidity", "description": "Provide liquidity",
				"parameters": []map[string]any{{"name": "chain", "type": "string", "required": true}}},
			{"action_id": 1002, "tool_name": "removeLiquidity", "description": "Withdraw liquidity"},
		},
	}
	path := testutil.WriteJSON(t, "toolkit.json", raw)

	tk, err := LoadToolkitFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, int64(79), tk.ToolkitID)
	require.Len(t, tk.Tools, 2)
	for _, tool := range tk.Tools {
		assert.Equal(t, int64(79), tool.ToolkitID)
		assert.Equal(t, "Pendle", tool.ToolkitName)
	}
	assert.Equal(t, []model.ToolParameter{{Name: "chain", Type: "string", Required: true}}, tk.Tools[0].Parameters)
	assert.Equal(t, []model.ToolParameter{}, tk.Tools[1].Parameters)

	svc, _, _ := newTestService(t, testDim)
	ids, err := svc.UpsertToolkit(context.Background(), *tk, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1002"}, ids)
}

func TestLoaderErrors(t *testing.T) {
	_, err := LoadToolsFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, CodeFileLoad, CodeOf(err))

	_, err = LoadToolkitFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, CodeFileLoad, CodeOf(err))

	_, err = DecodeTools(strings.NewReader(`{"action_id": 1}`))
	assert.Equal(t, CodeFileLoad, CodeOf(err))

	_, err = DecodeToolkit(strings.NewReader(`[1, 2`))
	assert.Equal(t, CodeFileLoad, CodeOf(err))
}
