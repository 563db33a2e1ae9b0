package model

import "time"

// CanonicalRow 标准输出行，长度与 CanonicalSchema 一致
type CanonicalRow []any

// UnresolvedReason 字段回退为 0 的原因
type UnresolvedReason string

const (
	ReasonColumnMissing    UnresolvedReason = "column_missing"    // 表头中没有对应列
	ReasonCellMissing      UnresolvedReason = "cell_missing"      // 该行缺少对应单元格
	ReasonCategoryUnknown  UnresolvedReason = "category_unknown"  // 类别不在薪资表中
	ReasonComponentMissing UnresolvedReason = "component_missing" // 类别存在但缺少组件
	ReasonMarkerMissing    UnresolvedReason = "marker_missing"    // 未找到标记列
)

// Unresolved 严格模式下记录的未解析字段
type Unresolved struct {
	Row      int              `json:"row"`      // 数据行序号，从 1 开始
	Field    string           `json:"field"`    // 标准字段名
	Position int              `json:"position"` // 字段在 schema 中的位置
	Reason   UnresolvedReason `json:"reason"`
	Detail   string           `json:"detail,omitempty"`
}

// RunKind 运行类型
type RunKind string

const (
	RunKindNormalize RunKind = "normalize"
	RunKindReplicate RunKind = "replicate"
)

// RunStatus 运行状态
type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusDone       RunStatus = "done"
	RunStatusFailed     RunStatus = "failed"
)

// Run 一次上传处理的元信息（只记录元数据，不持久化查找表）
type Run struct {
	ID              string     `json:"id" db:"id"`
	Kind            RunKind    `json:"kind" db:"kind"`
	Filename        string     `json:"filename" db:"filename"`
	SheetName       string     `json:"sheetName" db:"sheet_name"`
	OutputPath      string     `json:"outputPath" db:"output_path"`
	RowCount        int        `json:"rowCount" db:"row_count"`
	UnresolvedCount int        `json:"unresolvedCount" db:"unresolved_count"`
	Status          RunStatus  `json:"status" db:"status"`
	ErrorMessage    string     `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}
