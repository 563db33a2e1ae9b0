// Package reader 把 xlsx 工作簿读取为 parser.RawRow 序列。
package reader

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"paysheet/internal/formula"
	"paysheet/internal/model"
	"paysheet/internal/parser"
)

// HeaderMode 行 key 的生成方式
type HeaderMode int

const (
	// Keyed 第一行作为 key，之后每行一个 RawRow（与 sheet_to_json 默认行为一致）
	Keyed HeaderMode = iota
	// Positional 不使用表头，key 为 "column N"，第一行也作为数据返回
	Positional
)

// ParseHeaderMode 解析配置中的模式名（keyed / positional）
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keyed":
		return Keyed, nil
	case "positional":
		return Positional, nil
	default:
		return Keyed, fmt.Errorf("unknown header mode %q", s)
	}
}

// Workbook 只读工作簿
type Workbook struct {
	file   *excelize.File
	name   string
	logger *zap.Logger
}

// Open 打开 xlsx 文件
func Open(path string, logger *zap.Logger) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return newWorkbook(f, path, logger), nil
}

// OpenReader 从流中打开 xlsx
func OpenReader(r io.Reader, name string, logger *zap.Logger) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}
	return newWorkbook(f, name, logger), nil
}

func newWorkbook(f *excelize.File, name string, logger *zap.Logger) *Workbook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workbook{file: f, name: name, logger: logger}
}

// Close 关闭工作簿
func (w *Workbook) Close() error {
	return w.file.Close()
}

// File 底层 excelize 文件
func (w *Workbook) File() *excelize.File {
	return w.file
}

// SheetNames 按工作簿顺序返回 sheet 名
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// SheetAt 第 idx 个 sheet 名
func (w *Workbook) SheetAt(idx int) (string, error) {
	names := w.SheetNames()
	if len(names) == 0 {
		return "", ErrNoSheets
	}
	if idx < 0 || idx >= len(names) {
		return "", fmt.Errorf("sheet #%d: %w", idx+1, ErrSheetNotFound)
	}
	return names[idx], nil
}

func (w *Workbook) hasSheet(sheet string) bool {
	idx, err := w.file.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// Rows 返回 sheet 的原始字符串行（保留空行）
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if !w.hasSheet(sheet) {
		return nil, &SheetError{Sheet: sheet, Op: "rows", Err: ErrSheetNotFound}
	}
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &SheetError{Sheet: sheet, Op: "rows", Err: err}
	}
	return rows, nil
}

// ReadSheet 读取 sheet 为 RawRow 序列，空行跳过
//
// 每行都包含到表宽为止的所有列（空单元格值为 nil），位置索引与源表列号一致。
// 数值单元格转换为 float64，文本单元格（包括 "00123" 这样的文本数字）保持字符串。
func (w *Workbook) ReadSheet(sheet string, mode HeaderMode) ([]parser.RawRow, error) {
	start := time.Now()
	rows, err := w.Rows(sheet)
	if err != nil {
		return nil, err
	}

	var out []parser.RawRow
	var keys []string
	for r, cells := range rows {
		if isBlankRow(cells) {
			continue
		}
		if mode == Keyed && keys == nil {
			keys = headerKeys(cells)
			continue
		}
		width := len(cells)
		if len(keys) > width {
			width = len(keys)
		}
		row := parser.NewRawRow(width)
		for c := 0; c < width; c++ {
			key := parser.PositionalKey(c)
			if c < len(keys) {
				key = keys[c]
			}
			var v any
			if c < len(cells) {
				v = w.typedValue(sheet, c+1, r+1, cells[c])
			}
			row.Set(key, v)
		}
		out = append(out, row)
	}

	w.logger.Debug("sheet read",
		zap.String("file", w.name),
		zap.String("sheet", sheet),
		zap.Int("rows", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// ReadSheetAt 按位置读取 sheet
func (w *Workbook) ReadSheetAt(idx int, mode HeaderMode) (string, []parser.RawRow, error) {
	sheet, err := w.SheetAt(idx)
	if err != nil {
		return "", nil, err
	}
	rows, err := w.ReadSheet(sheet, mode)
	return sheet, rows, err
}

// DataRowCount 表头之后的非空行数
func (w *Workbook) DataRowCount(sheet string) (int, error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, cells := range rows {
		if !isBlankRow(cells) {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n - 1, nil
}

// TemplateRow 读取第 rowNum 行（从 1 开始），公式单元格以 "=..." 形式返回
func (w *Workbook) TemplateRow(sheet string, rowNum int) (formula.TemplateRow, error) {
	if !w.hasSheet(sheet) {
		return nil, &SheetError{Sheet: sheet, Op: "template", Err: ErrSheetNotFound}
	}
	width, err := w.sheetWidth(sheet)
	if err != nil {
		return nil, err
	}

	row := make(formula.TemplateRow, width)
	for c := 1; c <= width; c++ {
		cell, err := excelize.CoordinatesToCellName(c, rowNum)
		if err != nil {
			return nil, &SheetError{Sheet: sheet, Op: "template", Err: err}
		}
		f, err := w.file.GetCellFormula(sheet, cell)
		if err != nil {
			return nil, &SheetError{Sheet: sheet, Op: "template", Err: err}
		}
		if f != "" {
			row[c-1] = "=" + strings.TrimPrefix(f, "=")
			continue
		}
		raw, err := w.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &SheetError{Sheet: sheet, Op: "template", Err: err}
		}
		row[c-1] = w.typedValue(sheet, c, rowNum, raw)
	}
	return row, nil
}

// Recognize 识别每个 sheet 的角色
func (w *Workbook) Recognize(rec *parser.SheetRecognizer) []model.SheetRecognition {
	var out []model.SheetRecognition
	for _, sheet := range w.SheetNames() {
		rows, err := w.Rows(sheet)
		if err != nil {
			out = append(out, model.SheetRecognition{SheetName: sheet, Type: model.SheetTypeUnknown})
			continue
		}
		out = append(out, rec.Recognize(sheet, rows))
	}
	return out
}

// sheetWidth 取 sheet 维度与最长行中的较大者
func (w *Workbook) sheetWidth(sheet string) (int, error) {
	width := 0
	if dim, err := w.file.GetSheetDimension(sheet); err == nil && dim != "" {
		parts := strings.Split(dim, ":")
		if col, _, err := excelize.CellNameToCoordinates(parts[len(parts)-1]); err == nil {
			width = col
		}
	}
	rows, err := w.Rows(sheet)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width, nil
}

// typedValue 空单元格为 nil；非文本类型且能解析为数值时返回 float64
func (w *Workbook) typedValue(sheet string, col, row int, raw string) any {
	if raw == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// headerKeys 由表头行生成唯一 key：空表头用位置占位，重复表头追加 _1、_2 ...
func headerKeys(cells []string) []string {
	names := make([]string, len(cells))
	taken := make(map[string]bool, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = parser.PositionalKey(i)
		}
		names[i] = name
		taken[name] = true
	}

	// 重复表头加 _N 后缀；后缀名不能与任何真实表头或已生成的 key 冲突
	keys := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		key := name
		if used[key] {
			for n := 1; ; n++ {
				key = name + "_" + strconv.Itoa(n)
				if !used[key] && !taken[key] {
					break
				}
			}
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
