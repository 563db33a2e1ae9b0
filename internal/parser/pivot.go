package parser

import (
	"strings"
)

// DefaultComponentMarker 薪资透视表中“组件名”列的表头标记
const DefaultComponentMarker = "blue ocea cost"

// CategoryTable 类别 → 组件 → 值
//
// 类别按 NormalizeLabel 规范化后存储与查找；组件名按去除首尾空格后的精确值查找。
// nil 表等价于空表。
type CategoryTable struct {
	entries map[string]*categoryEntry
	order   []string
}

type categoryEntry struct {
	label      string
	components map[string]any
}

// NewCategoryTable 创建空表
func NewCategoryTable() *CategoryTable {
	return &CategoryTable{entries: make(map[string]*categoryEntry)}
}

func (t *CategoryTable) ensure(category string) *categoryEntry {
	key := NormalizeLabel(category)
	e, ok := t.entries[key]
	if !ok {
		e = &categoryEntry{label: category, components: make(map[string]any)}
		t.entries[key] = e
		t.order = append(t.order, category)
	}
	return e
}

// Set 写入一个值
func (t *CategoryTable) Set(category, component string, v any) {
	t.ensure(category).components[strings.TrimSpace(component)] = v
}

// Has 类别是否存在
func (t *CategoryTable) Has(category string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[NormalizeLabel(category)]
	return ok
}

// Value 查找类别下的组件值
func (t *CategoryTable) Value(category, component string) (any, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[NormalizeLabel(category)]
	if !ok {
		return nil, false
	}
	v, ok := e.components[strings.TrimSpace(component)]
	return v, ok
}

// Components 返回类别下所有组件（副本）
func (t *CategoryTable) Components(category string) map[string]any {
	if t == nil {
		return nil
	}
	e, ok := t.entries[NormalizeLabel(category)]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(e.components))
	for k, v := range e.components {
		out[k] = v
	}
	return out
}

// Categories 类别标签（按首次出现顺序）
func (t *CategoryTable) Categories() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len 类别数
func (t *CategoryTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// ParsePivot 解析薪资透视表
//
// rows[0] 在各列上给出类别名；组件名列由表头 key 中包含 marker（忽略大小写）的第一列确定，
// 找不到时取第一列。其余每行给出一个组件在所有类别下的值，组件名为空的行跳过，空值记为 0。
func ParsePivot(rows []RawRow, marker string) *CategoryTable {
	table := NewCategoryTable()
	if len(rows) == 0 || rows[0].Len() == 0 {
		return table
	}

	first := rows[0]
	keys := first.Keys()
	componentKey := findComponentKey(keys, marker)

	type categoryColumn struct {
		key   string
		label string
	}
	columns := make([]categoryColumn, 0, len(keys))
	for _, key := range keys {
		if key == componentKey {
			continue
		}
		v, _ := first.Get(key)
		label := strings.TrimSpace(CellString(v))
		if label == "" {
			continue
		}
		columns = append(columns, categoryColumn{key: key, label: label})
		table.ensure(label)
	}

	for _, row := range rows[1:] {
		fv, _ := row.Get(componentKey)
		field := strings.TrimSpace(CellString(fv))
		if field == "" {
			continue
		}
		for _, col := range columns {
			v, ok := row.Get(col.key)
			if !ok || IsBlank(v) {
				v = 0
			}
			table.Set(col.label, field, v)
		}
	}

	return table
}

func findComponentKey(keys []string, marker string) string {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker != "" {
		for _, key := range keys {
			if strings.Contains(strings.ToLower(key), marker) {
				return key
			}
		}
	}
	return keys[0]
}
