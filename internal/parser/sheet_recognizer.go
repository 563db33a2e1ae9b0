package parser

import (
	"regexp"
	"strings"

	"paysheet/internal/model"
)

// recognizeThreshold 判定为某类 sheet 的最低得分
const recognizeThreshold = 0.5

// sampleRows 识别时最多扫描的行数
const sampleRows = 20

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct {
	componentMarker string
	daysMarker      string
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer(componentMarker, daysMarker string) *SheetRecognizer {
	if componentMarker == "" {
		componentMarker = DefaultComponentMarker
	}
	if daysMarker == "" {
		daysMarker = DefaultDaysMarker
	}
	return &SheetRecognizer{
		componentMarker: NormalizeLabel(componentMarker),
		daysMarker:      NormalizeLabel(daysMarker),
	}
}

// Recognize 根据 sheet 名和前若干行内容识别 sheet 类型
func (r *SheetRecognizer) Recognize(sheetName string, rows [][]string) model.SheetRecognition {
	cells := sampleCells(rows)
	name := NormalizeLabel(sheetName)

	best := model.SheetRecognition{SheetName: sheetName, Type: model.SheetTypeUnknown}
	for _, res := range []model.SheetRecognition{
		r.recognizeRoster(sheetName, name, cells),
		r.recognizeSalary(sheetName, name, cells),
		r.recognizeAttendance(sheetName, name, cells),
	} {
		if res.Score > best.Score {
			best = res
		}
	}
	if best.Score < recognizeThreshold {
		best.Type = model.SheetTypeUnknown
	}
	return best
}

// recognizeRoster 识别花名册
func (r *SheetRecognizer) recognizeRoster(sheetName, name string, cells []string) model.SheetRecognition {
	keyFields := []string{
		`^emp\.? ?no\.?$|^employee (no|code|id)$`,
		`^name$|^employee name$`,
		`^designation$|^category$`,
		`^doj$|date of joining`,
		"^" + regexp.QuoteMeta(r.daysMarker) + "$",
	}
	score, missing := scoreFields(keyFields, cells)
	if ContainsAny(name, []string{"roster", "employee", "emp details"}) {
		score += 0.2
	}
	return model.SheetRecognition{SheetName: sheetName, Type: model.SheetTypeRoster, Score: score, MissingFields: missing}
}

// recognizeSalary 识别薪资组件透视表
func (r *SheetRecognizer) recognizeSalary(sheetName, name string, cells []string) model.SheetRecognition {
	keyFields := []string{
		`^basic wages$`,
		`^vda$`,
		`^hra$`,
		regexp.QuoteMeta(r.componentMarker) + `|^component`,
	}
	score, missing := scoreFields(keyFields, cells)
	if ContainsAny(name, []string{"salary", "wage", "cost"}) {
		score += 0.2
	}
	return model.SheetRecognition{SheetName: sheetName, Type: model.SheetTypeSalary, Score: score, MissingFields: missing}
}

// recognizeAttendance 识别考勤表：表头通常是 1..31 的日期列
func (r *SheetRecognizer) recognizeAttendance(sheetName, name string, cells []string) model.SheetRecognition {
	keyFields := []string{
		`^emp\.? ?no\.?$|^employee (no|code|id)$|^name$`,
		`present|attendance|^p ?days$`,
	}
	score, missing := scoreFields(keyFields, cells)

	days := 0
	seen := make(map[string]bool)
	for _, c := range cells {
		if MatchPattern(c, `^([1-9]|[12][0-9]|3[01])$`) && !seen[c] {
			seen[c] = true
			days++
		}
	}
	if days >= 28 {
		score += 0.5
	}
	if strings.Contains(name, "attendance") || strings.Contains(name, "muster") {
		score += 0.3
	}
	return model.SheetRecognition{SheetName: sheetName, Type: model.SheetTypeAttendance, Score: score, MissingFields: missing}
}

// PreferredSheets 配置中显式指定的 sheet 名
type PreferredSheets struct {
	Roster     string
	Salary     string
	Attendance string
}

// ResolveRoles 选定各角色的 sheet
//
// 显式配置优先；其次取识别得分最高的 sheet；最后按位置回退（第 1 个为花名册，第 2 个为薪资表）。
func ResolveRoles(recs []model.SheetRecognition, preferred PreferredSheets) model.SheetRoles {
	roles := model.SheetRoles{Recognitions: recs}
	used := make(map[string]bool)

	exists := func(name string) bool {
		for _, rec := range recs {
			if rec.SheetName == name {
				return true
			}
		}
		return false
	}
	pick := func(want string, typ model.SheetType) string {
		if want != "" && exists(want) {
			used[want] = true
			return want
		}
		best := ""
		bestScore := 0.0
		for _, rec := range recs {
			if rec.Type != typ || used[rec.SheetName] {
				continue
			}
			if rec.Score > bestScore {
				best = rec.SheetName
				bestScore = rec.Score
			}
		}
		if best != "" {
			used[best] = true
		}
		return best
	}

	roles.Roster = pick(preferred.Roster, model.SheetTypeRoster)
	roles.Salary = pick(preferred.Salary, model.SheetTypeSalary)
	roles.Attendance = pick(preferred.Attendance, model.SheetTypeAttendance)

	// 位置回退
	if roles.Roster == "" && len(recs) > 0 && !used[recs[0].SheetName] {
		roles.Roster = recs[0].SheetName
		used[roles.Roster] = true
	}
	if roles.Salary == "" && len(recs) > 1 && !used[recs[1].SheetName] {
		roles.Salary = recs[1].SheetName
		used[roles.Salary] = true
	}
	return roles
}

func sampleCells(rows [][]string) []string {
	if len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}
	var cells []string
	for _, row := range rows {
		for _, c := range row {
			c = NormalizeLabel(c)
			if c != "" {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func scoreFields(keyFields []string, cells []string) (float64, []string) {
	matchCount := 0
	var missing []string
	for _, field := range keyFields {
		found := false
		for _, c := range cells {
			if MatchPattern(c, field) {
				found = true
				break
			}
		}
		if found {
			matchCount++
		} else {
			missing = append(missing, field)
		}
	}
	return float64(matchCount) / float64(len(keyFields)), missing
}
