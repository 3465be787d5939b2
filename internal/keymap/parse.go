package keymap

import (
	"fmt"
	"strings"

	"layoutgen/pkg/contract"
)

const (
	// DefineMarker: 宏定义行前缀。
	DefineMarker = "#define"
	// TermSeparator: 加法组合分隔符（字面匹配，两侧各一个空格）。
	TermSeparator = " + "
)

// ParseDefinition 将单行 `#define NAME VALUE` 解析为 Definition。
// 约定：调用方已确认 line 以 DefineMarker 开头；此处不校验项内容，
// 无法解析的项在 Resolve 阶段上报。
func ParseDefinition(line string) (contract.Definition, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), DefineMarker))
	cut := strings.IndexAny(rest, " \t")
	if rest == "" || cut < 0 {
		return contract.Definition{}, fmt.Errorf("%w: %q", contract.ErrMalformedLine, line)
	}
	name := rest[:cut]
	value := strings.TrimSpace(rest[cut+1:])
	if value == "" {
		return contract.Definition{}, fmt.Errorf("%w: %q", contract.ErrMalformedLine, line)
	}
	terms := strings.Split(value, TermSeparator)
	for i := range terms {
		terms[i] = strings.TrimSpace(terms[i])
	}
	return contract.Definition{Name: name, Terms: terms}, nil
}

// ParseSection 按行解析一个分段。
// 非 define 行（#ifdef/#endif 等）忽略；畸形 define 行上报 DiagMalformedLine 后跳过。
func ParseSection(layout, text string, report contract.ReportFunc) []contract.Definition {
	var defs []contract.Definition
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !isDefine(line) {
			continue
		}
		def, err := ParseDefinition(line)
		if err != nil {
			report.Emit(contract.Diagnostic{Kind: contract.DiagMalformedLine, Layout: layout, Term: line, Line: i + 1})
			continue
		}
		def.Line = i + 1
		defs = append(defs, def)
	}
	return defs
}

// isDefine: 仅接受 "#define" 后紧跟空白的行（排除 #defined 之类）。
func isDefine(line string) bool {
	if !strings.HasPrefix(line, DefineMarker) {
		return false
	}
	rest := line[len(DefineMarker):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}
