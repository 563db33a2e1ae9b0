// Package formula 解析并改写表格公式中的单元格引用。
package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxRows = excelize.TotalRows

var cellRefRe = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)

// Reference 单元格引用：[sheet!][$]COL[$]ROW
type Reference struct {
	Sheet          string // 原样保留（可能带单引号），空表示当前 sheet
	Column         string
	ColumnAnchored bool
	Row            int
	RowAnchored    bool
}

// String 还原为公式中的写法
func (r Reference) String() string {
	var sb strings.Builder
	if r.Sheet != "" {
		sb.WriteString(r.Sheet)
		sb.WriteByte('!')
	}
	if r.ColumnAnchored {
		sb.WriteByte('$')
	}
	sb.WriteString(r.Column)
	if r.RowAnchored {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(r.Row))
	return sb.String()
}

// ParseReference 解析不带 sheet 前缀的单元格引用，如 "B2"、"$C$10"
func ParseReference(s string) (Reference, error) {
	m := cellRefRe.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, fmt.Errorf("invalid cell reference %q", s)
	}
	if _, err := excelize.ColumnNameToNumber(m[2]); err != nil {
		return Reference{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}
	row, err := strconv.Atoi(m[4])
	if err != nil || row < 1 || row > maxRows {
		return Reference{}, fmt.Errorf("invalid cell reference %q: row out of range", s)
	}
	return Reference{
		Column:         m[2],
		ColumnAnchored: m[1] == "$",
		Row:            row,
		RowAnchored:    m[3] == "$",
	}, nil
}

// IsFormula 单元格值是否为公式（以 = 开头的字符串）
func IsFormula(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "=")
}

// span 公式中一个引用所在的位置（含 sheet 前缀）
type span struct {
	start, end int
	ref        Reference
}

// References 提取公式中的所有单元格引用
//
// 字符串字面量、函数名（如 LOG10(）和 sheet 名不会被当作引用。
func References(formula string) []Reference {
	spans := scan(formula)
	out := make([]Reference, len(spans))
	for i, sp := range spans {
		out[i] = sp.ref
	}
	return out
}

// Rewrite 用 fn 替换公式中的每个引用，其余字符原样保留
func Rewrite(formula string, fn func(Reference) Reference) string {
	spans := scan(formula)
	if len(spans) == 0 {
		return formula
	}
	var sb strings.Builder
	last := 0
	for _, sp := range spans {
		sb.WriteString(formula[last:sp.start])
		sb.WriteString(fn(sp.ref).String())
		last = sp.end
	}
	sb.WriteString(formula[last:])
	return sb.String()
}

func scan(formula string) []span {
	var spans []span
	n := len(formula)
	sheet := ""
	sheetStart := -1

	for i := 0; i < n; {
		c := formula[i]
		switch {
		case c == '"':
			i = skipQuoted(formula, i, '"')
			sheet, sheetStart = "", -1
		case c == '\'':
			end := skipQuoted(formula, i, '\'')
			if end < n && formula[end] == '!' {
				sheet, sheetStart = formula[i:end], i
				i = end + 1
				continue
			}
			i = end
			sheet, sheetStart = "", -1
		case isRunStart(c):
			end := i
			for end < n && isRunChar(formula[end]) {
				end++
			}
			run := formula[i:end]
			if end < n && formula[end] == '!' {
				sheet, sheetStart = run, i
				i = end + 1
				continue
			}
			if end < n && formula[end] == '(' {
				i = end
				sheet, sheetStart = "", -1
				continue
			}
			if ref, err := ParseReference(run); err == nil && !isDigit(c) {
				start := i
				if sheet != "" {
					ref.Sheet = sheet
					start = sheetStart
				}
				spans = append(spans, span{start: start, end: end, ref: ref})
			}
			i = end
			sheet, sheetStart = "", -1
		default:
			i++
			sheet, sheetStart = "", -1
		}
	}
	return spans
}

// skipQuoted 跳过以 q 包围的字面量（两个 q 表示转义），返回结束引号之后的位置
func skipQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != q {
			continue
		}
		if j+1 < len(s) && s[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(s)
}

func isRunStart(c byte) bool {
	return c == '$' || c == '_' || isLetter(c) || isDigit(c)
}

func isRunChar(c byte) bool {
	return c == '$' || c == '_' || c == '.' || isLetter(c) || isDigit(c)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
