package model

// 标准字段名（仅列出有特殊处理规则的字段）
const (
	FieldCategory      = "Category"
	FieldFixedBasic    = "Fixed Basic"
	FieldFixedVDA      = "Fixed VDA"
	FieldHRA           = "HRA"
	FieldManDays       = "Man Days"
	FieldAllowanceDays = "Allowance Days"
)

// 工资组件名（薪资透视表行标签）
const (
	ComponentBasicWages = "BASIC WAGES"
	ComponentVDA        = "VDA"
	ComponentHRA        = "HRA"
)

// CanonicalSchema 输出报表的标准列顺序
//
// 允许重复字段名（如 Uniform 出现三次，分别代表不同阶段的金额），重复项按位置区分。
type CanonicalSchema []string

// PayrollSchema 工资报表标准列（43 列）
var PayrollSchema = CanonicalSchema{
	"S No",
	"Emp No",
	"Name",
	FieldCategory,
	"DOJ",
	FieldFixedBasic,
	FieldFixedVDA,
	FieldHRA,
	"Gross",
	"Uniform",
	"Per day Cost",
	"Fixed Leave Wages",
	"Working days",
	FieldManDays,
	FieldAllowanceDays,
	"Gross",
	"Basic",
	"VDA",
	"HRA-1",
	"Leave Wages",
	"Bonus",
	"T.A. Allowance",
	"Total Earn",
	"Employee PF 12%",
	"Employee ESI 0.75%",
	"PT",
	"LWF",
	"Advances",
	"Canteen Deduction",
	"Other Deduction",
	"Uniform",
	"Total Deduc",
	"Net Pay",
	"Emplr PF 13%",
	"Emplr ESI 3.25%",
	"Empr LWF",
	"Uniform",
	"Total Cost",
	"Service Charge 5 %",
	"Cost",
	"New Bank Accounts",
	"IFSC code",
	"Salary Process",
}

// SalaryLookupComponents 需要从薪资透视表取值的字段 → 组件名
var SalaryLookupComponents = map[string]string{
	FieldFixedBasic: ComponentBasicWages,
	FieldFixedVDA:   ComponentVDA,
	FieldHRA:        ComponentHRA,
}

// Len 字段数
func (s CanonicalSchema) Len() int {
	return len(s)
}

// Header 返回表头行（写入目标 sheet 的第一行）
func (s CanonicalSchema) Header() []any {
	out := make([]any, len(s))
	for i, name := range s {
		out[i] = name
	}
	return out
}

// IndexOf 返回字段首次出现的位置，不存在返回 -1
func (s CanonicalSchema) IndexOf(field string) int {
	for i, name := range s {
		if name == field {
			return i
		}
	}
	return -1
}
