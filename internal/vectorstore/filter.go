package vectorstore

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// 过滤语法操作符（与 Pinecone 元数据过滤语法兼容）
const (
	OpIn  = "$in"
	OpEq  = "$eq"
	OpAnd = "$and"
	OpOr  = "$or"
)

// Filter 元数据过滤表达式
//
//	{"toolkit_id": {"$in": [79]}}
//	{"$and": [{"required_params": {"$in": ["a"]}}, {"required_params": {"$in": ["b"]}}]}
//
// nil 或空 Filter 匹配所有记录。
type Filter map[string]any

// In 构造成员关系子句：field ∈ values
func In(field string, values ...any) Filter {
	return Filter{field: map[string]any{OpIn: values}}
}

// Eq 构造相等子句
func Eq(field string, value any) Filter {
	return Filter{field: map[string]any{OpEq: value}}
}

// And 合取多个子句；只有一个子句时直接返回该子句
func And(clauses ...Filter) Filter {
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return Filter{OpAnd: clauses}
	}
}

// IsEmpty 是否为空过滤（匹配全部）
func (f Filter) IsEmpty() bool {
	return len(f) == 0
}

// Matches 在进程内对元数据求值
func (f Filter) Matches(metadata map[string]any) (bool, error) {
	for _, key := range sortedKeys(f) {
		ok, err := matchKey(key, f[key], metadata)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchKey(key string, cond any, metadata map[string]any) (bool, error) {
	switch key {
	case OpAnd, OpOr:
		clauses, err := subFilters(cond)
		if err != nil {
			return false, err
		}
		for _, c := range clauses {
			ok, err := c.Matches(metadata)
			if err != nil {
				return false, err
			}
			if key == OpOr && ok {
				return true, nil
			}
			if key == OpAnd && !ok {
				return false, nil
			}
		}
		return key == OpAnd, nil
	}

	value, present := metadata[key]
	ops, isOps := asMap(cond)
	if !isOps {
		// 裸值等价于 $eq
		return present && valueMatches(value, []any{cond}), nil
	}
	for op, arg := range ops {
		switch op {
		case OpIn:
			candidates, ok := toSlice(arg)
			if !ok {
				return false, errors.Wrapf(ErrInvalidFilter, "%s on %q expects a list", OpIn, key)
			}
			if !present || !valueMatches(value, candidates) {
				return false, nil
			}
		case OpEq:
			if !present || !valueMatches(value, []any{arg}) {
				return false, nil
			}
		default:
			return false, errors.Wrapf(ErrInvalidFilter, "unsupported operator %q", op)
		}
	}
	return true, nil
}

// valueMatches 元数据值（标量或数组）与候选集合有交集即匹配
func valueMatches(value any, candidates []any) bool {
	values, isList := toSlice(value)
	if !isList {
		values = []any{value}
	}
	for _, v := range values {
		for _, c := range candidates {
			if scalarEqual(v, c) {
				return true
			}
		}
	}
	return false
}

func scalarEqual(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func subFilters(v any) ([]Filter, error) {
	switch t := v.(type) {
	case []Filter:
		return t, nil
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, errors.Wrap(ErrInvalidFilter, "logical operator expects a list of filters")
	}
	out := make([]Filter, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, errors.Wrap(ErrInvalidFilter, "logical operator operand is not a filter")
		}
		out = append(out, Filter(m))
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Filter:
		return t, true
	case map[string]any:
		return t, true
	}
	return nil, false
}

// toSlice 将任意切片转换为 []any，字符串不视为切片
func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sortedKeys(f Filter) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
