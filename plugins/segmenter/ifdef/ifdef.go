package ifdef

import (
	"context"
	"fmt"
	"io"
	"strings"

	"layoutgen/pkg/contract"
)

// Options 为 #ifdef 分段器的可选配置；空值采用默认。
type Options struct {
	// DefaultMarker: 默认分段起始行（整行匹配）。默认 "#define LAYOUT_UNSPECIFIED"。
	DefaultMarker string `json:"default_marker"`
	// DefaultEnd: 结束默认分段的守卫行（整行匹配），例如 "#ifdef LAYOUT_US_INTERNATIONAL"。
	// 为空时默认分段止于其后首个守卫行。
	DefaultEnd string `json:"default_end"`
	// GuardPrefix: 布局守卫行前缀，其后为布局名。默认 "#ifdef LAYOUT_"。
	GuardPrefix string `json:"guard_prefix"`
	// StopName: 终止发现的布局名（不入结果）。默认 "UNSPECIFIED"。
	StopName string `json:"stop_name"`
	// LastEntry: 布局分段的末行前缀（含该行）。默认 "#define ASCII_7F"。
	LastEntry string `json:"last_entry"`
}

// Segmenter 按 #ifdef LAYOUT_<NAME> 守卫切分 keylayouts.h。
type Segmenter struct {
	marker string
	endAt  string
	guard  string
	stop   string
	last   string
}

// New 创建分段器。
func New(opts *Options) *Segmenter {
	s := &Segmenter{
		marker: "#define LAYOUT_UNSPECIFIED",
		guard:  "#ifdef LAYOUT_",
		stop:   "UNSPECIFIED",
		last:   "#define ASCII_7F",
	}
	if opts == nil {
		return s
	}
	if v := strings.TrimSpace(opts.DefaultMarker); v != "" {
		s.marker = v
	}
	s.endAt = strings.TrimSpace(opts.DefaultEnd)
	if v := strings.TrimSpace(opts.GuardPrefix); v != "" {
		s.guard = v
	}
	if v := strings.TrimSpace(opts.StopName); v != "" {
		s.stop = v
	}
	if v := strings.TrimSpace(opts.LastEntry); v != "" {
		s.last = v
	}
	return s
}

var _ contract.Segmenter = (*Segmenter)(nil)

// Segment 读取全部文本并切分：
// - 默认分段：DefaultMarker 之后至首个守卫行（或 DefaultEnd）之前；
// - 布局分段：守卫行之后至 LastEntry 行（含）；缺少 LastEntry 时止于下一守卫行；
// - 守卫名为 StopName 或到达文本末尾时停止。重名布局以后者文本替换，位置不变。
func (s *Segmenter) Segment(ctx context.Context, id contract.SourceID, r io.Reader) (contract.Sections, error) {
	if err := ctxErr(ctx); err != nil {
		return contract.Sections{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return contract.Sections{}, err
	}
	lines := cleanLines(string(b))

	start := -1
	for i, l := range lines {
		if l == s.marker {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return contract.Sections{}, fmt.Errorf("%s: %w", id, contract.ErrNoDefaultSection)
	}
	end := s.defaultEnd(lines, start)
	out := contract.Sections{Default: contract.Section{Text: strings.Join(lines[start:end], "\n")}}

	pos := make(map[string]int)
	for i := end; i < len(lines); {
		if err := ctxErr(ctx); err != nil {
			return contract.Sections{}, err
		}
		if !strings.HasPrefix(lines[i], s.guard) {
			i = s.nextGuard(lines, i)
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(lines[i], s.guard))
		if name == s.stop {
			break
		}
		from := i + 1
		to := s.sectionEnd(lines, from)
		sec := contract.Section{Name: name, Text: strings.Join(lines[from:to], "\n")}
		if p, ok := pos[name]; ok {
			out.Layouts[p] = sec
		} else {
			pos[name] = len(out.Layouts)
			out.Layouts = append(out.Layouts, sec)
		}
		i = s.nextGuard(lines, from)
	}
	return out, nil
}

// defaultEnd 返回默认分段的开区间上界。
func (s *Segmenter) defaultEnd(lines []string, from int) int {
	if s.endAt == "" {
		return s.nextGuard(lines, from)
	}
	for i := from; i < len(lines); i++ {
		if lines[i] == s.endAt {
			return i
		}
	}
	return len(lines)
}

// nextGuard 返回 from 起首个守卫行下标；不存在时返回 len(lines)。
func (s *Segmenter) nextGuard(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], s.guard) {
			return i
		}
	}
	return len(lines)
}

// sectionEnd 返回分段的开区间上界：LastEntry 行之后，或下一守卫行。
func (s *Segmenter) sectionEnd(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], s.guard) {
			return i
		}
		if isEntry(lines[i], s.last) {
			return i + 1
		}
	}
	return len(lines)
}

// isEntry: 前缀匹配且其后为空白或行尾（避免 ASCII_7F 命中 ASCII_7F0）。
func isEntry(line, prefix string) bool {
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	rest := line[len(prefix):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
