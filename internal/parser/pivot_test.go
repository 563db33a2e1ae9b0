package parser

import "testing"

func TestParsePivot_FirstColumnFallback(t *testing.T) {
	t.Parallel()

	table := ParsePivot([]RawRow{
		PositionalRow("Component", "A", "B"),
		PositionalRow("BASIC WAGES", 100.0, 200.0),
	}, DefaultComponentMarker)

	if v, ok := table.Value("A", "BASIC WAGES"); !ok || v != 100.0 {
		t.Fatalf("A/BASIC WAGES = %v %v", v, ok)
	}
	if v, ok := table.Value("B", "BASIC WAGES"); !ok || v != 200.0 {
		t.Fatalf("B/BASIC WAGES = %v %v", v, ok)
	}
	if table.Has("Component") {
		t.Fatalf("component column must not become a category")
	}
}

func TestParsePivot_MarkerColumnAndDefaults(t *testing.T) {
	t.Parallel()

	keys := []string{"Blue Ocea Cost Sheet", "column 2", "column 3"}
	table := ParsePivot([]RawRow{
		RowOf(keys, "Particulars", " Casual Labour (Unskilled) ", "Jr. Supervisor (Semi Skilled)"),
		RowOf(keys, "BASIC WAGES ", 9000.0, 11000.0),
		RowOf(keys, "VDA", "", 1500.0),
		RowOf(keys, "", 1.0, 2.0),
		RowOf(keys[:2], "HRA", 450.0),
	}, DefaultComponentMarker)

	if table.Len() != 2 {
		t.Fatalf("want 2 categories got %d: %v", table.Len(), table.Categories())
	}
	if v, _ := table.Value("casual labour (unskilled)", "BASIC WAGES"); v != 9000.0 {
		t.Fatalf("case-insensitive category lookup failed: %v", v)
	}
	if v, ok := table.Value("Casual Labour (Unskilled)", "VDA"); !ok || v != 0 {
		t.Fatalf("blank cell should default to 0, got %v %v", v, ok)
	}
	if v, ok := table.Value("Jr. Supervisor (Semi Skilled)", "HRA"); !ok || v != 0 {
		t.Fatalf("missing cell should default to 0, got %v %v", v, ok)
	}
	if table.Has("Particulars") {
		t.Fatalf("marker column must not become a category")
	}
	if comps := table.Components("Casual Labour (Unskilled)"); len(comps) != 3 {
		t.Fatalf("rows with empty component label must be skipped: %v", comps)
	}
}

func TestParsePivot_EveryCategoryHasEntry(t *testing.T) {
	t.Parallel()

	table := ParsePivot([]RawRow{PositionalRow("Component", "A", "B")}, "")
	if !table.Has("A") || !table.Has("B") {
		t.Fatalf("categories from the first row must exist even without data rows")
	}
	if len(table.Components("A")) != 0 {
		t.Fatalf("expected empty component map")
	}
}

func TestParsePivot_EmptyInput(t *testing.T) {
	t.Parallel()

	if table := ParsePivot(nil, DefaultComponentMarker); table.Len() != 0 {
		t.Fatalf("expected empty table")
	}
	var nilTable *CategoryTable
	if _, ok := nilTable.Value("A", "HRA"); ok {
		t.Fatalf("nil table lookup must miss")
	}
}
