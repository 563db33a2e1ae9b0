// Package sink 把规范化结果写入输出工作簿。
//
// 流程与协作方一致：复制 master 模板 sheet → 重命名 → 从 A1 写入值 → 下拉公式 → 自适应列宽。
package sink

import (
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrTemplateSheetNotFound 模板中没有 master sheet
var ErrTemplateSheetNotFound = errors.New("template sheet not found")

// ErrSheetExists 目标 sheet 名已存在
var ErrSheetExists = errors.New("sheet already exists")

// Formula 以公式写入的单元格，"=" 前缀可有可无
//
// 普通字符串一律按文本写入，即使以 "=" 开头。
type Formula string

// Sink 输出工作簿
type Sink interface {
	// DuplicateTemplate 复制 master sheet 并命名为 name
	DuplicateTemplate(name string) error
	// WriteRows 从 startCell 开始按行写入，Formula 作为公式写入，nil 跳过
	WriteRows(sheet, startCell string, rows [][]any) error
	// CopyFormulasDown 把 master 第 srcRow 行 fromCol..toCol 的公式粘贴到 srcRow..lastRow，返回写入的单元格数
	CopyFormulasDown(sheet string, srcRow int, fromCol, toCol string, lastRow int) (int, error)
	// AutoResizeColumns 按内容调整所有已用列的列宽
	AutoResizeColumns(sheet string) error
	// WriteTo 序列化工作簿
	WriteTo(w io.Writer) (int64, error)
	SaveAs(path string) error
	Close() error
}

// SheetName 生成 "<prefix>-XXXXXX"，后缀取 run id 的前 6 位十六进制（大写）
func SheetName(prefix string, runID uuid.UUID) string {
	hex := strings.ReplaceAll(runID.String(), "-", "")
	suffix := strings.ToUpper(hex[:6])
	if prefix == "" {
		return suffix
	}
	return prefix + "-" + suffix
}
