package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInspect(t *testing.T) {
	t.Parallel()
	c := NewCoordinator(nil, Settings{ExportDir: filepath.Join(t.TempDir(), "exports")}, zaptest.NewLogger(t))

	got, err := c.Inspect(payrollUpload(t))
	require.NoError(t, err)
	require.Equal(t, []string{"Employees", "Rates"}, got.Sheets)
	require.Equal(t, "Employees", got.Roles.Roster)
	require.Equal(t, "Rates", got.Roles.Salary)
	require.Equal(t, 2, got.RosterRows)
	require.Equal(t, 5, got.Markers.MarkerIndex)
	require.Equal(t, 4, got.Markers.PrecedingIndex)
	require.Len(t, got.Categories, 2)
	require.NotEmpty(t, got.Columns)
	require.Positive(t, got.Resolved)
}

func TestInspectCountsAttendanceRows(t *testing.T) {
	t.Parallel()
	c := NewCoordinator(nil, Settings{}, zaptest.NewLogger(t))

	got, err := c.Inspect(attendanceUpload(t))
	require.NoError(t, err)
	require.Equal(t, "Attendance", got.Roles.Attendance)
	require.Equal(t, 3, got.AttendanceRows)
}

func TestInspectMissingFile(t *testing.T) {
	t.Parallel()
	c := NewCoordinator(nil, Settings{}, zaptest.NewLogger(t))
	_, err := c.Inspect(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}
