package keymap

import "layoutgen/pkg/contract"

// BuildTable 为 0x20..0x7F 构造 96 项表；缺失项为 contract.Undefined。
func BuildTable(m contract.Mapping) contract.Table {
	var t contract.Table
	for i := range t {
		v, ok := m[contract.ASCIIName(contract.FirstCode+i)]
		if !ok {
			v = contract.Undefined
		}
		t[i] = v
	}
	return t
}

// reportMissing 为每个缺失槽位上报 DiagMissingASCII。
func reportMissing(layout string, t contract.Table, report contract.ReportFunc) {
	for _, code := range t.Missing() {
		report.Emit(contract.Diagnostic{Kind: contract.DiagMissingASCII, Layout: layout, Name: contract.ASCIIName(code)})
	}
}
