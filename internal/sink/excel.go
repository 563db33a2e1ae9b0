package sink

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"paysheet/internal/formula"
)

const (
	// DefaultMasterSheet 模板 sheet 名
	DefaultMasterSheet = "master"

	minColWidth = 8.0
	maxColWidth = 60.0
)

// Options ExcelSink 选项
type Options struct {
	// TemplatePath 为空时生成只含空白 master sheet 的工作簿
	TemplatePath string
	MasterSheet  string
	// Header 生成 master 时写入第 1 行
	Header []any
	Logger *zap.Logger
}

// ExcelSink 基于 excelize 的 Sink 实现
type ExcelSink struct {
	file   *excelize.File
	master string
	logger *zap.Logger
}

var _ Sink = (*ExcelSink)(nil)

// NewExcelSink 打开模板工作簿
func NewExcelSink(opts Options) (*ExcelSink, error) {
	master := strings.TrimSpace(opts.MasterSheet)
	if master == "" {
		master = DefaultMasterSheet
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var f *excelize.File
	if p := strings.TrimSpace(opts.TemplatePath); p != "" {
		var err error
		f, err = excelize.OpenFile(p)
		if err != nil {
			return nil, fmt.Errorf("open template %s: %w", p, err)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), master); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create master sheet: %w", err)
		}
		if len(opts.Header) > 0 {
			header := opts.Header
			if err := f.SetSheetRow(master, "A1", &header); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write master header: %w", err)
			}
		}
	}

	return &ExcelSink{file: f, master: master, logger: logger}, nil
}

// File 底层工作簿
func (s *ExcelSink) File() *excelize.File {
	return s.file
}

func (s *ExcelSink) sheetIndex(name string) int {
	idx, err := s.file.GetSheetIndex(name)
	if err != nil {
		return -1
	}
	return idx
}

// DuplicateTemplate 复制 master sheet
func (s *ExcelSink) DuplicateTemplate(name string) error {
	from := s.sheetIndex(s.master)
	if from < 0 {
		return fmt.Errorf("%q: %w", s.master, ErrTemplateSheetNotFound)
	}
	if s.sheetIndex(name) >= 0 {
		return fmt.Errorf("%q: %w", name, ErrSheetExists)
	}
	to, err := s.file.NewSheet(name)
	if err != nil {
		return fmt.Errorf("new sheet %q: %w", name, err)
	}
	if err := s.file.CopySheet(from, to); err != nil {
		return fmt.Errorf("copy %q to %q: %w", s.master, name, err)
	}
	s.file.SetActiveSheet(to)
	s.logger.Debug("template duplicated", zap.String("master", s.master), zap.String("sheet", name))
	return nil
}

// WriteRows 按行写入，nil 单元格保持模板原样
func (s *ExcelSink) WriteRows(sheet, startCell string, rows [][]any) error {
	if s.sheetIndex(sheet) < 0 {
		return fmt.Errorf("write %q: %w", sheet, ErrTemplateSheetNotFound)
	}
	col, row, err := excelize.CellNameToCoordinates(startCell)
	if err != nil {
		return fmt.Errorf("start cell %q: %w", startCell, err)
	}
	for r, values := range rows {
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+c, row+r)
			if err != nil {
				return err
			}
			if err := s.setCell(sheet, cell, v); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func (s *ExcelSink) setCell(sheet, cell string, v any) error {
	switch x := v.(type) {
	case Formula:
		return s.file.SetCellFormula(sheet, cell, strings.TrimPrefix(string(x), "="))
	case string:
		return s.file.SetCellStr(sheet, cell, x)
	default:
		return s.file.SetCellValue(sheet, cell, v)
	}
}

// CopyFormulasDown 相当于对 master 源行区域做"仅粘贴公式"，目标为 srcRow..lastRow，未锚定的行引用随目标行平移
//
// 源公式取自 master 而不是目标 sheet：写入数据会清除目标单元格上的公式。
func (s *ExcelSink) CopyFormulasDown(sheet string, srcRow int, fromCol, toCol string, lastRow int) (int, error) {
	if s.sheetIndex(sheet) < 0 {
		return 0, fmt.Errorf("copy formulas %q: %w", sheet, ErrTemplateSheetNotFound)
	}
	if s.sheetIndex(s.master) < 0 {
		return 0, fmt.Errorf("%q: %w", s.master, ErrTemplateSheetNotFound)
	}
	from, err := excelize.ColumnNameToNumber(fromCol)
	if err != nil {
		return 0, err
	}
	to, err := excelize.ColumnNameToNumber(toCol)
	if err != nil {
		return 0, err
	}
	if from > to {
		from, to = to, from
	}

	written := 0
	for c := from; c <= to; c++ {
		src, err := excelize.CoordinatesToCellName(c, srcRow)
		if err != nil {
			return written, err
		}
		f, err := s.file.GetCellFormula(s.master, src)
		if err != nil {
			return written, fmt.Errorf("read formula %s!%s: %w", s.master, src, err)
		}
		if f == "" {
			continue
		}
		f = "=" + strings.TrimPrefix(f, "=")
		for r := srcRow; r <= lastRow; r++ {
			dst, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return written, err
			}
			shifted := formula.ShiftRows(f, r-srcRow)
			if err := s.file.SetCellFormula(sheet, dst, strings.TrimPrefix(shifted, "=")); err != nil {
				return written, fmt.Errorf("write formula %s!%s: %w", sheet, dst, err)
			}
			written++
		}
	}
	s.logger.Debug("formulas copied down", zap.String("sheet", sheet), zap.Int("cells", written))
	return written, nil
}

// AutoResizeColumns 列宽取该列最长文本（按字符数）
func (s *ExcelSink) AutoResizeColumns(sheet string) error {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("auto resize %q: %w", sheet, err)
	}
	var widths []int
	for _, row := range rows {
		for c, v := range row {
			if c >= len(widths) {
				widths = append(widths, make([]int, c-len(widths)+1)...)
			}
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}
	}
	for c, n := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := s.file.SetColWidth(sheet, name, name, columnWidth(n)); err != nil {
			return fmt.Errorf("set width %s!%s: %w", sheet, name, err)
		}
	}
	return nil
}

func columnWidth(chars int) float64 {
	w := float64(chars) + 2
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return w
}

// WriteTo 写出 xlsx 字节流
func (s *ExcelSink) WriteTo(w io.Writer) (int64, error) {
	return s.file.WriteTo(w)
}

// SaveAs 保存到文件
func (s *ExcelSink) SaveAs(path string) error {
	if err := s.file.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Close 释放工作簿
func (s *ExcelSink) Close() error {
	return s.file.Close()
}
