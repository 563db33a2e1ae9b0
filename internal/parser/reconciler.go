package parser

import (
	"paysheet/internal/model"
)

// DesignationLabel 源表中可以代替 Category 的列名
const DesignationLabel = "Designation"

// SchemaReconciler 表头对齐器：把任意源表头映射到标准 schema
type SchemaReconciler struct {
	schema   model.CanonicalSchema
	fallback map[string][]string
}

// NewSchemaReconciler 创建表头对齐器
func NewSchemaReconciler(schema model.CanonicalSchema) *SchemaReconciler {
	return &SchemaReconciler{
		schema: schema,
		fallback: map[string][]string{
			model.FieldCategory: {DesignationLabel},
		},
	}
}

// Reconcile 按 schema 顺序为每个字段在表头行的值中查找同名列
//
// 精确、区分大小写匹配，重复表头取第一个。Category 找不到时改找 Designation。
// 结果长度恒等于 schema 长度，找不到的字段 Index 为 -1。
func (r *SchemaReconciler) Reconcile(header RawRow) HeaderMap {
	labels := make([]string, header.Len())
	for i, v := range header.Values() {
		labels[i] = CellString(v)
	}

	mapping := make(HeaderMap, len(r.schema))
	for pos, field := range r.schema {
		idx := indexOf(labels, field)
		if idx < 0 {
			for _, alt := range r.fallback[field] {
				if idx = indexOf(labels, alt); idx >= 0 {
					break
				}
			}
		}
		ref := ColumnRef{Field: field, Index: idx}
		if idx >= 0 {
			ref.Key, _ = header.KeyAt(idx)
		}
		mapping[pos] = ref
	}
	return mapping
}

// Reconcile 使用默认对齐规则
func Reconcile(header RawRow, schema model.CanonicalSchema) HeaderMap {
	return NewSchemaReconciler(schema).Reconcile(header)
}

func indexOf(labels []string, want string) int {
	if want == "" {
		return -1
	}
	for i, l := range labels {
		if l == want {
			return i
		}
	}
	return -1
}
