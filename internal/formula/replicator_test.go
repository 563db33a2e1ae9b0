package formula

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReplicate_ShiftsRowsAndNumbersLabels(t *testing.T) {
	t.Parallel()

	rows := NewReplicator(RewriteAll).Replicate(TemplateRow{"", "=B2+C2"}, 3)
	want := []TemplateRow{
		{1, "=B2+C2"},
		{2, "=B3+C3"},
		{3, "=B4+C4"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReplicate_AnchorsAndColumnsPreserved(t *testing.T) {
	t.Parallel()

	template := TemplateRow{"label", "=$B$2*Rates!C$7", "plain", 12.5}
	rows := NewReplicator(RewriteAll).Replicate(template, 4)
	if len(rows) != 4 {
		t.Fatalf("want 4 rows got %d", len(rows))
	}
	for i, row := range rows {
		n := i + 1
		if row[0] != n {
			t.Fatalf("row %d label = %v", n, row[0])
		}
		refs := References(row[1].(string))
		if len(refs) != 2 {
			t.Fatalf("row %d refs: %+v", n, refs)
		}
		if refs[0] != (Reference{Column: "B", ColumnAnchored: true, Row: n + 1, RowAnchored: true}) {
			t.Fatalf("row %d first ref: %+v", n, refs[0])
		}
		if refs[1] != (Reference{Sheet: "Rates", Column: "C", Row: n + 1, RowAnchored: true}) {
			t.Fatalf("row %d second ref: %+v", n, refs[1])
		}
		if row[2] != "plain" || row[3] != 12.5 {
			t.Fatalf("non-formula cells must be copied: %v", row)
		}
	}
	if template[0] != "label" || template[1] != "=$B$2*Rates!C$7" {
		t.Fatalf("template mutated: %v", template)
	}
}

func TestReplicate_RelativePolicyKeepsAnchoredRows(t *testing.T) {
	t.Parallel()

	rows := NewReplicator(RewriteRelative).Replicate(TemplateRow{"", "=B2*$C$1"}, 2)
	if rows[1][1] != "=B3*$C$1" {
		t.Fatalf("unexpected: %v", rows[1][1])
	}
}

func TestReplicate_ZeroCountAndEmptyTemplate(t *testing.T) {
	t.Parallel()

	if rows := NewReplicator(RewriteAll).Replicate(TemplateRow{"", "=A2"}, 0); len(rows) != 0 {
		t.Fatalf("expected no rows")
	}
	rows := NewReplicator(RewriteAll).Replicate(nil, 2)
	if diff := cmp.Diff([]TemplateRow{{1}, {2}}, rows); diff != "" {
		t.Fatalf("empty template:\n%s", diff)
	}
}

func TestReplicateWithHeader(t *testing.T) {
	t.Parallel()

	rows := NewReplicator(RewriteAll).ReplicateWithHeader(TemplateRow{"S No", "Total"}, TemplateRow{"", "=B2"}, 2)
	want := []TemplateRow{{"S No", "Total"}, {1, "=B2"}, {2, "=B3"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("mismatch:\n%s", diff)
	}
}

func TestShiftRows(t *testing.T) {
	t.Parallel()

	if got := ShiftRows("=D2*E2-$F$1+G1", 3); got != "=D5*E5-$F$1+G4" {
		t.Fatalf("unexpected shift: %s", got)
	}
	if got := ShiftRows("plain", 3); got != "plain" {
		t.Fatalf("non-formula changed: %s", got)
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	if p, err := ParsePolicy("relative"); err != nil || p != RewriteRelative {
		t.Fatalf("relative: %v %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != RewriteAll {
		t.Fatalf("default: %v %v", p, err)
	}
	if _, err := ParsePolicy("bogus"); err == nil {
		t.Fatalf("expected error")
	}
}
