package contract

import "fmt"

// 表格常量：覆盖可打印 ASCII 0x20..0x7F 共 96 项。
const (
	TableSize = 96
	FirstCode = 0x20
	// Undefined: 表项缺失标记（与 0 区分，供下游检测缺口）。
	Undefined = -1
)

// SourceID: 头文件来源标识（规范化路径或 "stdin"）。
type SourceID string

// Definition: 单行 `#define NAME TERM [+ TERM ...]` 的解析结果。
// 约束：Terms 至少一项；多项表示加法组合。
type Definition struct {
	Name  string
	Terms []string
	// Line: 在所属分段内的行号（1 起）；0 表示未知。
	Line int
}

// Mapping: 名称 → 已解析整数值。
type Mapping map[string]int

// Table: 按 ASCII 码排列的键码表，下标 i 对应字符 0x20+i。
type Table [TableSize]int

// Missing 返回缺失项对应的字符码（升序）。
func (t Table) Missing() []int {
	var out []int
	for i, v := range t {
		if v == Undefined {
			out = append(out, FirstCode+i)
		}
	}
	return out
}

// ASCIIName 返回字符码对应的宏名，如 0x5A → "ASCII_5A"。
func ASCIIName(code int) string { return fmt.Sprintf("ASCII_%X", code) }

// Section: 已切分的布局文本段。
type Section struct {
	Name string
	Text string
}

// Sections: 分段器输出；Layouts 保持发现顺序。
type Sections struct {
	Default Section
	Layouts []Section
}

// Layout: 单个布局的名称与表。
type Layout struct {
	Name  string
	Table Table
}

// Result: 组装结果（默认表 + 按发现顺序排列的布局集）。
type Result struct {
	Default Table
	Layouts []Layout
}

// Lookup 按名称查找布局表。
func (r Result) Lookup(name string) (Table, bool) {
	for _, l := range r.Layouts {
		if l.Name == name {
			return l.Table, true
		}
	}
	return Table{}, false
}
