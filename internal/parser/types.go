package parser

import (
	"strconv"
)

// RawRow 原始行：保持列顺序的 列 key → 单元格值
//
// key 在行内唯一；key 的顺序与源表列顺序一致，位置查找依赖该顺序。
// 值为 nil / string / float64 / int 等标量。
type RawRow struct {
	keys   []string
	values map[string]any
}

// NewRawRow 创建空行
func NewRawRow(capacity int) RawRow {
	return RawRow{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// RowOf 按 keys/values 成对构造行，多余的 key 值为 nil
func RowOf(keys []string, values ...any) RawRow {
	r := NewRawRow(len(keys))
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Set(k, v)
	}
	return r
}

// PositionalRow 使用位置占位 key 构造行（无表头的 sheet）
func PositionalRow(values ...any) RawRow {
	r := NewRawRow(len(values))
	for i, v := range values {
		r.Set(PositionalKey(i), v)
	}
	return r
}

// PositionalKey 第 idx 列（idx 从 0 开始）的位置占位 key，编号从 1 开始："column 1"、"column 2" ...
func PositionalKey(idx int) string {
	return "column " + strconv.Itoa(idx+1)
}

// Set 设置单元格；已存在的 key 保持原有位置
func (r *RawRow) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get 按 key 取值
func (r RawRow) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len 列数
func (r RawRow) Len() int {
	return len(r.keys)
}

// Keys 列 key（按源表顺序，返回副本）
func (r RawRow) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// KeyAt 第 idx 列的 key
func (r RawRow) KeyAt(idx int) (string, bool) {
	if idx < 0 || idx >= len(r.keys) {
		return "", false
	}
	return r.keys[idx], true
}

// ValueAt 第 idx 列的值
func (r RawRow) ValueAt(idx int) (any, bool) {
	key, ok := r.KeyAt(idx)
	if !ok {
		return nil, false
	}
	return r.values[key], true
}

// Values 按列顺序返回所有值
func (r RawRow) Values() []any {
	out := make([]any, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// ColumnRef 标准字段在源表中的列
type ColumnRef struct {
	Field string `json:"field"`
	Key   string `json:"key,omitempty"`
	Index int    `json:"index"` // -1 表示缺失
}

// Found 是否找到源列
func (c ColumnRef) Found() bool {
	return c.Index >= 0
}

// HeaderMap 标准字段（按 schema 位置）→ 源列
type HeaderMap []ColumnRef

// Lookup 按字段名取第一次出现的映射
func (m HeaderMap) Lookup(field string) (ColumnRef, bool) {
	for _, ref := range m {
		if ref.Field == field {
			return ref, ref.Found()
		}
	}
	return ColumnRef{Field: field, Index: -1}, false
}

// Resolved 已找到源列的字段数
func (m HeaderMap) Resolved() int {
	n := 0
	for _, ref := range m {
		if ref.Found() {
			n++
		}
	}
	return n
}

// MarkerColumns 标记列定位结果
//
// 标记列本身和它前一列都可能缺失，调用方通过 Marker / Preceding 显式判断。
type MarkerColumns struct {
	MarkerIndex    int    `json:"markerIndex"`
	PrecedingIndex int    `json:"precedingIndex"`
	MarkerKey      string `json:"markerKey,omitempty"`
	PrecedingKey   string `json:"precedingKey,omitempty"`
}

// NoMarker 未找到标记列
var NoMarker = MarkerColumns{MarkerIndex: -1, PrecedingIndex: -1}

// Found 是否找到标记列
func (m MarkerColumns) Found() bool {
	return m.MarkerIndex >= 0
}

// Marker 标记列的 key
func (m MarkerColumns) Marker() (string, bool) {
	if m.MarkerIndex < 0 {
		return "", false
	}
	return m.MarkerKey, true
}

// Preceding 标记列前一列的 key
func (m MarkerColumns) Preceding() (string, bool) {
	if m.PrecedingIndex < 0 {
		return "", false
	}
	return m.PrecedingKey, true
}
