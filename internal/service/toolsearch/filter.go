package toolsearch

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/ashwinyue/tool-search/internal/vectorstore"
)

// 请求过滤键
const (
	FilterToolName       = "tool_name"
	FilterToolkit        = "toolkit"
	FilterToolkitID      = "toolkit_id"
	FilterChain          = "chain"
	FilterRequiredParams = "required_params"
	FilterNamePrefix     = "name_prefix"
)

// membershipFilters 请求键 -> 元数据字段，按此顺序生成子句
var membershipFilters = []struct {
	key   string
	field string
}{
	{FilterToolName, MetaToolName},
	{FilterToolkit, MetaToolkitName},
	{FilterToolkitID, MetaToolkitID},
	{FilterChain, MetaChain},
}

// TranslateFilters 将请求过滤条件转换为索引过滤表达式
//
// 标量统一视为单元素集合；required_params 每个元素生成一个 $in 子句并合取；
// name_prefix 与未知键不参与转换。空条件返回 nil（匹配全部）。
func TranslateFilters(filters map[string]any) vectorstore.Filter {
	var clauses []vectorstore.Filter

	for _, mf := range membershipFilters {
		values := filterValues(filters[mf.key])
		if len(values) == 0 {
			continue
		}
		clauses = append(clauses, vectorstore.In(mf.field, values...))
	}

	for _, param := range filterValues(filters[FilterRequiredParams]) {
		clauses = append(clauses, vectorstore.In(MetaRequiredParams, param))
	}

	return vectorstore.And(clauses...)
}

// applyPostFilters 处理索引无法表达的条件，保持原有顺序
func applyPostFilters(matches []vectorstore.Match, filters map[string]any) []vectorstore.Match {
	prefix := cast.ToString(filters[FilterNamePrefix])
	if prefix == "" {
		return matches
	}

	out := make([]vectorstore.Match, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(cast.ToString(m.Metadata[MetaToolName]), prefix) {
			out = append(out, m)
		}
	}
	return out
}

// filterValues 将标量或列表归一为集合；零值视为未设置
func filterValues(v any) []any {
	if isZeroFilterValue(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	if _, isBytes := v.([]byte); isBytes {
		return []any{string(v.([]byte))}
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}

func isZeroFilterValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() == 0
	}
	return rv.IsZero()
}
