package ifdef

import "strings"

// stripComments 移除 C 风格注释（// 行注释与 /* */ 块注释），保留字符串/字符字面量内的内容。
// 块注释内的换行被保留，以免相邻行被拼接。
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	const (
		code = iota
		line
		block
		str
		chr
	)
	state := code
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case code:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = line
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = block
				i++
			case c == '"':
				state = str
				b.WriteByte(c)
			case c == '\'':
				state = chr
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case line:
			if c == '\n' {
				state = code
				b.WriteByte(c)
			}
		case block:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = code
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			}
		case str, chr:
			b.WriteByte(c)
			quote := byte('"')
			if state == chr {
				quote = '\''
			}
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				b.WriteByte(src[i])
			case c == quote, c == '\n':
				state = code
			}
		}
	}
	return b.String()
}

// cleanLines 剥离注释后逐行去首尾空白并丢弃空行（CRLF→LF）。
func cleanLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	raw := strings.Split(stripComments(src), "\n")
	out := raw[:0]
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
