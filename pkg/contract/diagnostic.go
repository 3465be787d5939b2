package contract

import "fmt"

// DiagKind: 非致命诊断类别。
type DiagKind string

const (
	DiagUnresolvedTerm DiagKind = "unresolved_term"
	DiagMissingASCII   DiagKind = "missing_ascii"
	DiagMalformedLine  DiagKind = "malformed_line"
	DiagDuplicate      DiagKind = "duplicate_definition"
)

// Diagnostic: 解析/组装过程中的非致命问题。
// Layout 为空表示默认分段。
type Diagnostic struct {
	Kind   DiagKind
	Layout string
	Name   string
	Term   string
	Line   int
}

func (d Diagnostic) String() string {
	where := d.Layout
	if where == "" {
		where = "default"
	}
	switch d.Kind {
	case DiagUnresolvedTerm:
		return fmt.Sprintf("%s: can't convert %s: %q", where, d.Name, d.Term)
	case DiagMissingASCII:
		return fmt.Sprintf("%s: %s undefined", where, d.Name)
	case DiagMalformedLine:
		return fmt.Sprintf("%s: malformed define at line %d: %q", where, d.Line, d.Term)
	case DiagDuplicate:
		return fmt.Sprintf("%s: duplicate definition %s ignored", where, d.Name)
	default:
		return fmt.Sprintf("%s: %s %s %s", where, d.Kind, d.Name, d.Term)
	}
}

// ReportFunc: 诊断通道；nil 表示丢弃。
type ReportFunc func(Diagnostic)

// Emit 在 f 非 nil 时投递诊断。
func (f ReportFunc) Emit(d Diagnostic) {
	if f != nil {
		f(d)
	}
}
