// Package payroll 把花名册行投影为标准工资报表行。
package payroll

import (
	"paysheet/internal/model"
	"paysheet/internal/parser"
)

// Options 投影选项
type Options struct {
	// Strict 记录每个回退为 0 的字段，默认只回退不记录
	Strict bool
}

// Projection 投影结果
type Projection struct {
	Rows       []model.CanonicalRow `json:"rows"`
	Unresolved []model.Unresolved   `json:"unresolved,omitempty"`
}

// Projector 行投影器
type Projector struct {
	schema     model.CanonicalSchema
	normalizer *parser.DesignationNormalizer
	opts       Options
}

// NewProjector 创建行投影器；normalizer 为 nil 时使用内置别名表
func NewProjector(schema model.CanonicalSchema, normalizer *parser.DesignationNormalizer, opts Options) *Projector {
	if normalizer == nil {
		normalizer = parser.NewDesignationNormalizer(nil)
	}
	return &Projector{
		schema:     schema,
		normalizer: normalizer,
		opts:       opts,
	}
}

// Project 跳过 roster[0]（表头行），为其余每行生成一条标准行
//
// 字段取值优先级：薪资查表字段 → Man Days（标记列前一列）→ Allowance Days（标记列）→ 表头映射。
// 任何无法解析的字段都回退为 0，不返回错误，也不修改输入。
func (p *Projector) Project(roster []parser.RawRow, hm parser.HeaderMap, table *parser.CategoryTable, markers parser.MarkerColumns) Projection {
	out := Projection{Rows: []model.CanonicalRow{}}
	if len(roster) <= 1 {
		return out
	}

	categoryRef, _ := hm.Lookup(model.FieldCategory)

	out.Rows = make([]model.CanonicalRow, 0, len(roster)-1)
	for i, row := range roster[1:] {
		rowNo := i + 1
		category := ""
		if categoryRef.Found() {
			if v, ok := row.Get(categoryRef.Key); ok {
				category = p.normalizer.Normalize(parser.CellString(v))
			}
		}

		canonical := make(model.CanonicalRow, len(p.schema))
		for pos, field := range p.schema {
			v, reason, detail := p.resolve(row, pos, field, hm, table, markers, category)
			canonical[pos] = v
			if reason != "" && p.opts.Strict {
				out.Unresolved = append(out.Unresolved, model.Unresolved{
					Row:      rowNo,
					Field:    field,
					Position: pos,
					Reason:   reason,
					Detail:   detail,
				})
			}
		}
		out.Rows = append(out.Rows, canonical)
	}
	return out
}

func (p *Projector) resolve(row parser.RawRow, pos int, field string, hm parser.HeaderMap, table *parser.CategoryTable, markers parser.MarkerColumns, category string) (any, model.UnresolvedReason, string) {
	if component, ok := model.SalaryLookupComponents[field]; ok {
		if !table.Has(category) {
			return 0, model.ReasonCategoryUnknown, category
		}
		v, ok := table.Value(category, component)
		if !ok {
			return 0, model.ReasonComponentMissing, category + "/" + component
		}
		return v, "", ""
	}

	switch field {
	case model.FieldManDays:
		key, ok := markers.Preceding()
		if !ok {
			return 0, model.ReasonMarkerMissing, ""
		}
		return cellOrZero(row, key)
	case model.FieldAllowanceDays:
		key, ok := markers.Marker()
		if !ok {
			return 0, model.ReasonMarkerMissing, ""
		}
		return cellOrZero(row, key)
	}

	if pos >= len(hm) || !hm[pos].Found() {
		return 0, model.ReasonColumnMissing, ""
	}
	return cellOrZero(row, hm[pos].Key)
}

func cellOrZero(row parser.RawRow, key string) (any, model.UnresolvedReason, string) {
	v, ok := row.Get(key)
	if !ok || parser.IsBlank(v) {
		return 0, model.ReasonCellMissing, key
	}
	return v, "", ""
}

