package reader

import (
	"errors"
	"fmt"
)

// ErrSheetNotFound 工作簿中没有指定的 sheet
var ErrSheetNotFound = errors.New("sheet not found")

// ErrNoSheets 工作簿中没有任何 sheet
var ErrNoSheets = errors.New("workbook has no sheets")

// SheetError 读取某个 sheet 时的错误
type SheetError struct {
	Sheet string
	Op    string // "rows", "template", "dimension"
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("read sheet %q (%s): %v", e.Sheet, e.Op, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}
