package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"paysheet/internal/formula"
	"paysheet/internal/model"
	"paysheet/internal/parser"
	"paysheet/internal/sink"
	"paysheet/internal/store"
)

func writeWorkbook(t *testing.T, name string, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, sheet := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r, row := range sheets[sheet] {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(sheet, cell, &values))
		}
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func payrollUpload(t *testing.T) string {
	return writeWorkbook(t, "march.xlsx", map[string][][]any{
		"Employees": {
			{"Blue Ocean Payroll - March"},
			{"Emp No", "Name", "Designation", "DOJ", "Days", "Total"},
			{"E1", "Asha", "Sr. MHE", "2024-01-05", 26, 4},
			{"E2", "Ravi", "Electrician", "2024-02-01", 24, 2},
		},
		"Rates": {
			{"Blue Ocea Cost Sheet"},
			{"Particulars", "Jr. MHE Operator (Semi Skilled)", "Casual Labour (Unskilled)"},
			{"BASIC WAGES", 15000, 12000},
			{"VDA", 2000, 1500},
			{"HRA", 750, 600},
		},
	}, "Employees", "Rates")
}

func newTestCoordinator(t *testing.T, settings Settings) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "paysheet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	if settings.ExportDir == "" {
		settings.ExportDir = filepath.Join(t.TempDir(), "exports")
	}
	return NewCoordinator(st, settings, zaptest.NewLogger(t)), st
}

func cellValue(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func formulaAt(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellFormula(sheet, cell)
	require.NoError(t, err)
	return v
}

func TestRunNormalize(t *testing.T) {
	t.Parallel()
	c, st := newTestCoordinator(t, Settings{})

	report, err := c.RunNormalize(context.Background(), NormalizeOptions{FilePath: payrollUpload(t)})
	require.NoError(t, err)

	require.Equal(t, "march.xlsx", report.Filename)
	require.Equal(t, "Employees", report.Roles.Roster)
	require.Equal(t, "Rates", report.Roles.Salary)
	require.Equal(t, 2, report.Rows)
	require.Regexp(t, `^EmpDetails-[0-9A-F]{6}$`, report.SheetName)
	require.Empty(t, report.Unresolved)

	out := report.OutputPath
	require.Equal(t, "S No", cellValue(t, out, report.SheetName, "A1"))
	require.Equal(t, "Salary Process", cellValue(t, out, report.SheetName, "AQ1"))
	require.Equal(t, "E1", cellValue(t, out, report.SheetName, "B2"))
	require.Equal(t, "Sr. MHE", cellValue(t, out, report.SheetName, "D2"))
	require.Equal(t, "15000", cellValue(t, out, report.SheetName, "F2"))
	require.Equal(t, "2000", cellValue(t, out, report.SheetName, "G2"))
	require.Equal(t, "750", cellValue(t, out, report.SheetName, "H2"))
	require.Equal(t, "26", cellValue(t, out, report.SheetName, "N2"))
	require.Equal(t, "4", cellValue(t, out, report.SheetName, "O2"))
	// 未知职位：查表字段全部为 0
	require.Equal(t, "0", cellValue(t, out, report.SheetName, "F3"))
	require.Equal(t, "24", cellValue(t, out, report.SheetName, "N3"))

	run, err := st.GetRun(report.RunID)
	require.NoError(t, err)
	require.Equal(t, model.RunStatusDone, run.Status)
	require.Equal(t, 2, run.RowCount)
	require.Equal(t, report.SheetName, run.SheetName)
}

func TestRunNormalizeStrictCollectsUnresolved(t *testing.T) {
	t.Parallel()
	c, st := newTestCoordinator(t, Settings{})

	report, err := c.RunNormalize(context.Background(), NormalizeOptions{FilePath: payrollUpload(t), Strict: true})
	require.NoError(t, err)
	require.NotEmpty(t, report.Unresolved)

	var unknown []string
	for _, u := range report.Unresolved {
		if u.Reason == model.ReasonCategoryUnknown {
			require.Equal(t, 2, u.Row)
			unknown = append(unknown, u.Field)
		}
	}
	require.ElementsMatch(t, []string{model.FieldFixedBasic, model.FieldFixedVDA, model.FieldHRA}, unknown)

	run, err := st.GetRun(report.RunID)
	require.NoError(t, err)
	require.Equal(t, len(report.Unresolved), run.UnresolvedCount)
}

func TestRunNormalizeRuntimeAlias(t *testing.T) {
	t.Parallel()
	c, st := newTestCoordinator(t, Settings{})
	require.NoError(t, st.SetAlias("Electrician", "Casual Labour (Unskilled)"))

	report, err := c.RunNormalize(context.Background(), NormalizeOptions{FilePath: payrollUpload(t)})
	require.NoError(t, err)
	require.Equal(t, "12000", cellValue(t, report.OutputPath, report.SheetName, "F3"))
}

func TestRunNormalizeNeedsTwoSheets(t *testing.T) {
	t.Parallel()
	c, st := newTestCoordinator(t, Settings{})
	path := writeWorkbook(t, "single.xlsx", map[string][][]any{
		"Only": {{"Emp No", "Name"}},
	}, "Only")

	_, err := c.RunNormalize(context.Background(), NormalizeOptions{FilePath: path})
	require.True(t, errors.Is(err, ErrNotEnoughSheets), err)

	runs, err := st.ListRuns(store.RunQuery{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Contains(t, runs[0].ErrorMessage, "roster sheet")
}

func TestRunNormalizeCancelled(t *testing.T) {
	t.Parallel()
	c, _ := newTestCoordinator(t, Settings{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RunNormalize(ctx, NormalizeOptions{FilePath: payrollUpload(t)})
	require.True(t, errors.Is(err, context.Canceled), err)
}

func TestNormalizeStreamsProgress(t *testing.T) {
	t.Parallel()
	c, _ := newTestCoordinator(t, Settings{})

	var types []string
	var report *Report
	for evt := range c.Normalize(context.Background(), NormalizeOptions{FilePath: payrollUpload(t), Filename: "upload.xlsx"}) {
		types = append(types, evt.Type)
		if evt.Type == "done" {
			report, _ = evt.Data.(*Report)
		}
	}

	require.NotEmpty(t, types)
	require.Equal(t, "start", types[0])
	require.Equal(t, "done", types[len(types)-1])
	require.Contains(t, types, "sheet_done")
	require.NotNil(t, report)
	require.Equal(t, "upload.xlsx", report.Filename)
}

func TestNormalizeStreamsError(t *testing.T) {
	t.Parallel()
	c, _ := newTestCoordinator(t, Settings{})

	var last ProgressEvent
	for evt := range c.Normalize(context.Background(), NormalizeOptions{FilePath: filepath.Join(t.TempDir(), "missing.xlsx")}) {
		last = evt
	}
	require.Equal(t, "error", last.Type)
}

func TestNormalizeCopiesTemplateFormulas(t *testing.T) {
	t.Parallel()
	template := writeWorkbook(t, "template.xlsx", map[string][][]any{
		"master": {{"S No"}},
	}, "master")
	f, err := excelize.OpenFile(template)
	require.NoError(t, err)
	require.NoError(t, f.SetCellFormula("master", "AR2", "F2+G2+H2"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	c, _ := newTestCoordinator(t, Settings{
		TemplatePath:    template,
		FormulaStartCol: "AR",
		FormulaEndCol:   "AR",
	})
	report, err := c.RunNormalize(context.Background(), NormalizeOptions{FilePath: payrollUpload(t)})
	require.NoError(t, err)

	out, err := excelize.OpenFile(report.OutputPath)
	require.NoError(t, err)
	defer out.Close()
	got, err := out.GetCellFormula(report.SheetName, "AR3")
	require.NoError(t, err)
	require.Equal(t, "F3+G3+H3", got)
}

func attendanceUpload(t *testing.T) string {
	return writeWorkbook(t, "attendance.xlsx", map[string][][]any{
		"Attendance": {
			{"Emp No", "Name", "Days"},
			{"E1", "Asha", 26},
			{"E2", "Ravi", 24},
			{"E3", "Meena", 25},
		},
	}, "Attendance")
}

func replicateTemplate(t *testing.T) string {
	path := writeWorkbook(t, "template.xlsx", map[string][][]any{
		"master": {{"Emp No", "Name", "Days", "Basic", "PF"}},
	}, "master")
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("master", "A2", 1))
	require.NoError(t, f.SetCellFormula("master", "D2", "C2*500"))
	require.NoError(t, f.SetCellFormula("master", "E2", "D2*$G$1"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())
	return path
}

func TestRunReplicate(t *testing.T) {
	t.Parallel()
	c, st := newTestCoordinator(t, Settings{Policy: formula.RewriteRelative})

	report, err := c.RunReplicate(context.Background(), ReplicateOptions{
		FilePath:     attendanceUpload(t),
		TemplatePath: replicateTemplate(t),
	})
	require.NoError(t, err)
	require.Equal(t, 3, report.Rows)
	require.Equal(t, "Attendance", report.Roles.Attendance)

	out, err := excelize.OpenFile(report.OutputPath)
	require.NoError(t, err)
	defer out.Close()

	for cell, want := range map[string]string{
		"D2": "C2*500",
		"D4": "C4*500",
		"E3": "D3*$G$1",
	} {
		got, err := out.GetCellFormula(report.SheetName, cell)
		require.NoError(t, err)
		require.Equal(t, want, got, cell)
	}
	for cell, want := range map[string]string{
		"A1": "Emp No",
		"D1": "Basic",
		"A3": "E2",
		"B4": "Meena",
		"C4": "25",
	} {
		got, err := out.GetCellValue(report.SheetName, cell)
		require.NoError(t, err)
		require.Equal(t, want, got, cell)
	}

	run, err := st.GetRun(report.RunID)
	require.NoError(t, err)
	require.Equal(t, model.RunKindReplicate, run.Kind)
	require.Equal(t, 3, run.RowCount)
}

func TestRunReplicateFallsBackToFirstSheet(t *testing.T) {
	t.Parallel()
	c, _ := newTestCoordinator(t, Settings{})
	upload := writeWorkbook(t, "data.xlsx", map[string][][]any{
		"Data":  {{"Code", "Label", "Qty"}, {"X1", "Bolt", 4}, {"X2", "Nut", 9}},
		"Notes": {{"remark"}},
	}, "Data", "Notes")

	report, err := c.RunReplicate(context.Background(), ReplicateOptions{
		FilePath:     upload,
		TemplatePath: replicateTemplate(t),
	})
	require.NoError(t, err)
	require.Equal(t, "Data", report.Roles.Attendance)
	require.Equal(t, 2, report.Rows)
	require.Equal(t, "C3*500", formulaAt(t, report.OutputPath, report.SheetName, "D3"))
}

func TestRunReplicateNeedsTemplate(t *testing.T) {
	t.Parallel()
	c, _ := newTestCoordinator(t, Settings{})
	_, err := c.RunReplicate(context.Background(), ReplicateOptions{FilePath: attendanceUpload(t)})
	require.True(t, errors.Is(err, ErrNoTemplate), err)
}

func TestMergeRowKeepsSerialWhenFirstColumnBlank(t *testing.T) {
	t.Parallel()
	row := mergeRow(formula.TemplateRow{2, nil, "=B3"}, parser.PositionalRow("", "x"))
	require.Equal(t, []any{2, "x", sink.Formula("=B3")}, row)
}

func TestMergeRowFallsBackToTemplateConstants(t *testing.T) {
	t.Parallel()
	row := mergeRow(
		formula.TemplateRow{1, "Shift A", "=C2*2", 8, nil},
		parser.PositionalRow("E7", "", "=not-a-formula", "", "", "late"),
	)
	require.Equal(t, []any{"E7", "Shift A", sink.Formula("=C2*2"), 8, nil, "late"}, row)
}
