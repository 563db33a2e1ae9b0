package parser

// DefaultDaysMarker 出勤天数列的锚点表头
const DefaultDaysMarker = "Total"

// LocateByMarker 在表头行的值（不是 key）中查找第一个等于 marker 的单元格
//
// 返回标记列及其前一列的位置和 key；找不到时两者均为 -1。
func LocateByMarker(header RawRow, marker string) MarkerColumns {
	if marker == "" {
		return NoMarker
	}
	for i, v := range header.Values() {
		if CellString(v) != marker {
			continue
		}
		res := MarkerColumns{
			MarkerIndex:    i,
			PrecedingIndex: i - 1,
		}
		res.MarkerKey, _ = header.KeyAt(i)
		if res.PrecedingIndex >= 0 {
			res.PrecedingKey, _ = header.KeyAt(res.PrecedingIndex)
		}
		return res
	}
	return NoMarker
}
