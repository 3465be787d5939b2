package keymap

import (
	"strconv"
	"strings"
	"unicode"

	"layoutgen/pkg/contract"
)

// SkipName: 架构标记，不承载键码值。
const SkipName = "KEYCODE_TYPE"

// Resolve 按输入顺序解析一批定义。
//
// 每个项依次查找：本批已解析的名称（local）→ base → 整数字面量。
// 三者均失败时上报 DiagUnresolvedTerm，该项不计入求和，其余项与后续定义照常处理。
// 前向引用不会从 local 解析；local 只追加不回写；base 只读。
func Resolve(defs []contract.Definition, base contract.Mapping, report contract.ReportFunc) contract.Mapping {
	return resolveIn("", defs, base, report)
}

func resolveIn(layout string, defs []contract.Definition, base contract.Mapping, report contract.ReportFunc) contract.Mapping {
	local := make(contract.Mapping, len(defs))
	for _, def := range defs {
		if def.Name == SkipName {
			continue
		}
		// 局部映射只增不改：重复定义保留首值并上报
		if _, dup := local[def.Name]; dup {
			report.Emit(contract.Diagnostic{Kind: contract.DiagDuplicate, Layout: layout, Name: def.Name, Line: def.Line})
			continue
		}
		sum := 0
		for _, term := range def.Terms {
			v, ok := lookup(term, local, base)
			if !ok {
				report.Emit(contract.Diagnostic{Kind: contract.DiagUnresolvedTerm, Layout: layout, Name: def.Name, Term: term, Line: def.Line})
				continue
			}
			sum += v
		}
		local[def.Name] = sum
	}
	return local
}

func lookup(term string, local, base contract.Mapping) (int, bool) {
	if v, ok := local[term]; ok {
		return v, true
	}
	if v, ok := base[term]; ok {
		return v, true
	}
	return ParseLiteral(term)
}

// ParseLiteral 将文本数字转为整数：十进制或 0x/0X 前缀十六进制，忽略空白。
// 不接受符号、运算符、后缀或八进制解释（"010" 视为十进制 10）。
func ParseLiteral(s string) (int, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	base := 10
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s, base = s[2:], 16
	}
	if s == "" || s[0] == '+' || s[0] == '-' || strings.ContainsRune(s, '_') {
		return 0, false
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
