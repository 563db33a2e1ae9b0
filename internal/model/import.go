package model

// SheetRoles 本次上传选定的 sheet 角色
type SheetRoles struct {
	Roster     string `json:"roster"`
	Salary     string `json:"salary"`
	Attendance string `json:"attendance,omitempty"`
	// Recognitions 每个 sheet 的识别明细（按工作簿顺序）
	Recognitions []SheetRecognition `json:"recognitions"`
}
