package payroll

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"paysheet/internal/model"
	"paysheet/internal/parser"
)

func salaryTable() *parser.CategoryTable {
	return parser.ParsePivot([]parser.RawRow{
		parser.PositionalRow("Blue Ocea Cost", "Jr. MHE Operator (Semi Skilled)", "Casual Labour (Unskilled)"),
		parser.PositionalRow("BASIC WAGES", 12000.0, 9000.0),
		parser.PositionalRow("VDA", 1500.0, 1200.0),
		parser.PositionalRow("HRA", 600.0, ""),
	}, parser.DefaultComponentMarker)
}

func rosterSheet() []parser.RawRow {
	return []parser.RawRow{
		parser.PositionalRow("S No", "Emp No", "Name", "Designation", "DOJ", "Conveyance", "Total", "Net Pay"),
		parser.PositionalRow(1.0, "E001", "Asha", "Sr. MHE", "2024-01-02", 24.0, 26.0, 15000.0),
		parser.PositionalRow(2.0, "E002", "Ravi", "Electrician", "", 20.0, 22.0),
	}
}

func TestProject_EndToEndRow(t *testing.T) {
	t.Parallel()

	roster := rosterSheet()
	hm := parser.Reconcile(roster[0], model.PayrollSchema)
	markers := parser.LocateByMarker(roster[0], parser.DefaultDaysMarker)

	rows := project(roster, hm, salaryTable(), markers)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows got %d", len(rows))
	}

	want := map[string]any{
		"S No":           1.0,
		"Emp No":         "E001",
		"Name":           "Asha",
		"Category":       "Sr. MHE",
		"DOJ":            "2024-01-02",
		"Fixed Basic":    12000.0,
		"Fixed VDA":      1500.0,
		"HRA":            600.0,
		"Man Days":       24.0,
		"Allowance Days": 26.0,
		"Net Pay":        15000.0,
		"Bonus":          0,
	}
	got := map[string]any{}
	for field := range want {
		got[field] = rows[0][model.PayrollSchema.IndexOf(field)]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_UnknownCategoryYieldsZeroSalary(t *testing.T) {
	t.Parallel()

	roster := rosterSheet()
	hm := parser.Reconcile(roster[0], model.PayrollSchema)
	rows := project(roster, hm, salaryTable(), parser.LocateByMarker(roster[0], "Total"))

	for _, field := range []string{model.FieldFixedBasic, model.FieldFixedVDA, model.FieldHRA} {
		if v := rows[1][model.PayrollSchema.IndexOf(field)]; v != 0 {
			t.Fatalf("%s for unlisted designation should be 0, got %v", field, v)
		}
	}
	if v := rows[1][model.PayrollSchema.IndexOf("Net Pay")]; v != 0 {
		t.Fatalf("missing cell should be 0, got %v", v)
	}
	if v := rows[1][model.PayrollSchema.IndexOf("DOJ")]; v != 0 {
		t.Fatalf("blank cell should be 0, got %v", v)
	}
}

func TestProject_MissingMarkerZeroesDays(t *testing.T) {
	t.Parallel()

	roster := []parser.RawRow{
		parser.PositionalRow("Emp No", "Name"),
		parser.PositionalRow("E1", "A"),
	}
	hm := parser.Reconcile(roster[0], model.PayrollSchema)
	rows := project(roster, hm, nil, parser.LocateByMarker(roster[0], "Total"))
	if rows[0][model.PayrollSchema.IndexOf(model.FieldManDays)] != 0 ||
		rows[0][model.PayrollSchema.IndexOf(model.FieldAllowanceDays)] != 0 {
		t.Fatalf("days should be 0 without marker: %v", rows[0])
	}
}

func TestProject_ArbitraryRowsNeverPanic(t *testing.T) {
	t.Parallel()

	header := parser.PositionalRow("Emp No", "Name", "Category", "Total")
	roster := []parser.RawRow{
		header,
		{},
		parser.RowOf([]string{"unrelated"}, "x"),
		parser.PositionalRow(nil, nil, nil, nil, nil, nil),
	}
	hm := parser.Reconcile(header, model.PayrollSchema)
	rows := project(roster, hm, parser.NewCategoryTable(), parser.LocateByMarker(header, "Total"))
	if len(rows) != len(roster)-1 {
		t.Fatalf("want %d rows got %d", len(roster)-1, len(rows))
	}
	for i, r := range rows {
		if len(r) != model.PayrollSchema.Len() {
			t.Fatalf("row %d has %d columns", i, len(r))
		}
	}
}

func TestProject_EmptyRoster(t *testing.T) {
	t.Parallel()

	if rows := project(nil, nil, nil, parser.NoMarker); len(rows) != 0 {
		t.Fatalf("expected no rows")
	}
	header := parser.PositionalRow("Emp No")
	if rows := project([]parser.RawRow{header}, parser.Reconcile(header, model.PayrollSchema), nil, parser.NoMarker); len(rows) != 0 {
		t.Fatalf("header-only roster should produce no rows")
	}
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	roster := rosterSheet()
	before := roster[2].Keys()
	hm := parser.Reconcile(roster[0], model.PayrollSchema)
	_ = project(roster, hm, salaryTable(), parser.LocateByMarker(roster[0], "Total"))
	if diff := cmp.Diff(before, roster[2].Keys()); diff != "" {
		t.Fatalf("input row mutated:\n%s", diff)
	}
}

func TestProject_StrictCollectsUnresolved(t *testing.T) {
	t.Parallel()

	roster := rosterSheet()
	hm := parser.Reconcile(roster[0], model.PayrollSchema)
	p := NewProjector(model.PayrollSchema, nil, Options{Strict: true})
	res := p.Project(roster, hm, salaryTable(), parser.LocateByMarker(roster[0], "Total"))

	var categoryMisses, columnMisses int
	for _, u := range res.Unresolved {
		switch {
		case u.Row == 2 && u.Reason == model.ReasonCategoryUnknown:
			categoryMisses++
			if u.Detail != "Electrician" {
				t.Fatalf("detail should name the category, got %q", u.Detail)
			}
		case u.Row == 1 && u.Reason == model.ReasonColumnMissing && u.Field == "Bonus":
			columnMisses++
		}
	}
	if categoryMisses != 3 {
		t.Fatalf("want 3 category misses for row 2, got %d", categoryMisses)
	}
	if columnMisses != 1 {
		t.Fatalf("want Bonus column miss on row 1, got %d", columnMisses)
	}

	lenient := NewProjector(model.PayrollSchema, nil, Options{}).Project(roster, hm, salaryTable(), parser.LocateByMarker(roster[0], "Total"))
	if len(lenient.Unresolved) != 0 {
		t.Fatalf("lenient mode must not collect, got %d", len(lenient.Unresolved))
	}
	if diff := cmp.Diff(lenient.Rows, res.Rows); diff != "" {
		t.Fatalf("strict mode must not change values:\n%s", diff)
	}
}

func TestProject_ComponentMissingForKnownCategory(t *testing.T) {
	t.Parallel()

	table := parser.ParsePivot([]parser.RawRow{
		parser.PositionalRow("Component", "Casual Labour (Unskilled)"),
		parser.PositionalRow("BASIC WAGES", 9000.0),
	}, "")
	header := parser.PositionalRow("Designation")
	roster := []parser.RawRow{header, parser.PositionalRow("Casual Labour")}
	res := NewProjector(model.PayrollSchema, nil, Options{Strict: true}).
		Project(roster, parser.Reconcile(header, model.PayrollSchema), table, parser.NoMarker)

	row := res.Rows[0]
	if row[model.PayrollSchema.IndexOf(model.FieldFixedBasic)] != 9000.0 {
		t.Fatalf("Fixed Basic = %v", row[model.PayrollSchema.IndexOf(model.FieldFixedBasic)])
	}
	if row[model.PayrollSchema.IndexOf(model.FieldHRA)] != 0 {
		t.Fatalf("HRA should fall back to 0")
	}
	found := false
	for _, u := range res.Unresolved {
		if u.Field == model.FieldHRA && u.Reason == model.ReasonComponentMissing {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected component_missing for HRA: %+v", res.Unresolved)
	}
}

func project(roster []parser.RawRow, hm parser.HeaderMap, table *parser.CategoryTable, markers parser.MarkerColumns) []model.CanonicalRow {
	return NewProjector(model.PayrollSchema, nil, Options{}).Project(roster, hm, table, markers).Rows
}
