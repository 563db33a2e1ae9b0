package importer

import (
	"paysheet/internal/model"
	"paysheet/internal/parser"
	"paysheet/internal/reader"
)

// ColumnMatch 标准字段在花名册中的匹配结果
type ColumnMatch struct {
	Position int    `json:"position"`
	Field    string `json:"field"`
	Key      string `json:"key,omitempty"`
	Index    int    `json:"index"`
}

// Inspection 工作簿结构诊断（不写任何输出）
type Inspection struct {
	Sheets         []string             `json:"sheets"`
	Roles          model.SheetRoles     `json:"roles"`
	RosterRows     int                  `json:"rosterRows"`
	Columns        []ColumnMatch        `json:"columns"`
	Resolved       int                  `json:"resolved"`
	Markers        parser.MarkerColumns `json:"markers"`
	Categories     []string             `json:"categories"`
	AttendanceRows int                  `json:"attendanceRows,omitempty"`
}

// Inspect 识别 sheet 角色并给出表头映射、标记列与薪资类别
func (c *Coordinator) Inspect(path string) (*Inspection, error) {
	wb, err := reader.Open(path, c.logger)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) == 0 {
		return nil, reader.ErrNoSheets
	}
	out := &Inspection{
		Sheets: names,
		Roles:  parser.ResolveRoles(wb.Recognize(c.recognizer), c.settings.Preferred),
	}

	if out.Roles.Roster != "" {
		roster, err := wb.ReadSheet(out.Roles.Roster, c.settings.HeaderMode)
		if err != nil {
			return nil, err
		}
		var header parser.RawRow
		if len(roster) > 0 {
			// 首行是表头，其余为员工行
			header = roster[0]
			out.RosterRows = len(roster) - 1
		}
		hm := parser.Reconcile(header, c.schema)
		out.Resolved = hm.Resolved()
		out.Markers = parser.LocateByMarker(header, c.settings.DaysMarker)
		for pos, ref := range hm {
			out.Columns = append(out.Columns, ColumnMatch{Position: pos, Field: ref.Field, Key: ref.Key, Index: ref.Index})
		}
	}

	if out.Roles.Salary != "" {
		salary, err := wb.ReadSheet(out.Roles.Salary, reader.Keyed)
		if err != nil {
			return nil, err
		}
		out.Categories = parser.ParsePivot(salary, c.settings.ComponentMarker).Categories()
	}

	if out.Roles.Attendance != "" {
		n, err := wb.DataRowCount(out.Roles.Attendance)
		if err != nil {
			return nil, err
		}
		out.AttendanceRows = n
	}
	return out, nil
}
