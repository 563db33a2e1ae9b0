package model

// SheetType 工作表类型（用于输入容错识别）
type SheetType string

const (
	SheetTypeUnknown    SheetType = "unknown"
	SheetTypeRoster     SheetType = "roster"     // 员工花名册
	SheetTypeSalary     SheetType = "salary"     // 薪资组件透视表
	SheetTypeAttendance SheetType = "attendance" // 考勤表
)

// SheetRecognition 单个 sheet 的识别结果
type SheetRecognition struct {
	SheetName     string    `json:"sheetName"`
	Type          SheetType `json:"type"`
	Score         float64   `json:"score"`
	MissingFields []string  `json:"missingFields"`
}
