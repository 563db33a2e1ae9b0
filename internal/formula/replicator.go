package formula

import (
	"fmt"
	"strings"
)

// Policy 引用改写策略
type Policy int

const (
	// RewriteAll 公式中的每个引用都改到新行，不区分跨 sheet 引用或 $ 锚定
	RewriteAll Policy = iota
	// RewriteRelative 行号带 $ 锚定的引用保持不变
	RewriteRelative
)

// ParsePolicy 解析配置中的策略名（all / relative）
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return RewriteAll, nil
	case "relative":
		return RewriteRelative, nil
	default:
		return RewriteAll, fmt.Errorf("unknown reference policy %q", s)
	}
}

// String 策略名
func (p Policy) String() string {
	if p == RewriteRelative {
		return "relative"
	}
	return "all"
}

// RewriteRow 把公式中引用的行号改为 row
func RewriteRow(formula string, row int, policy Policy) string {
	if !strings.HasPrefix(formula, "=") {
		return formula
	}
	return Rewrite(formula, func(ref Reference) Reference {
		if policy == RewriteRelative && ref.RowAnchored {
			return ref
		}
		ref.Row = row
		return ref
	})
}

// ShiftRows 按粘贴公式的语义把相对行号平移 delta，$ 锚定的行号不变
func ShiftRows(formula string, delta int) string {
	if !strings.HasPrefix(formula, "=") || delta == 0 {
		return formula
	}
	return Rewrite(formula, func(ref Reference) Reference {
		if ref.RowAnchored {
			return ref
		}
		if row := ref.Row + delta; row >= 1 && row <= maxRows {
			ref.Row = row
		}
		return ref
	})
}

// TemplateRow 模板行：按列顺序的单元格值，部分为公式
type TemplateRow []any

// Replicator 模板行复制器
type Replicator struct {
	policy Policy
}

// NewReplicator 创建复制器
func NewReplicator(policy Policy) *Replicator {
	return &Replicator{policy: policy}
}

// Replicate 生成 count 行：第 i 行（从 1 开始）复制模板，公式引用行号改为 i+1，首列写入序号 i
//
// 模板行本身不会出现在结果中。
func (r *Replicator) Replicate(template TemplateRow, count int) []TemplateRow {
	if count <= 0 {
		return []TemplateRow{}
	}
	width := len(template)
	if width == 0 {
		width = 1
	}

	rows := make([]TemplateRow, 0, count)
	for i := 1; i <= count; i++ {
		row := make(TemplateRow, width)
		copy(row, template)
		for c, v := range row {
			if s, ok := v.(string); ok && IsFormula(s) {
				row[c] = RewriteRow(s, i+1, r.policy)
			}
		}
		row[0] = i
		rows = append(rows, row)
	}
	return rows
}

// ReplicateWithHeader 在生成的行前加上表头行
func (r *Replicator) ReplicateWithHeader(header, template TemplateRow, count int) []TemplateRow {
	rows := r.Replicate(template, count)
	out := make([]TemplateRow, 0, len(rows)+1)
	h := make(TemplateRow, len(header))
	copy(h, header)
	out = append(out, h)
	return append(out, rows...)
}

