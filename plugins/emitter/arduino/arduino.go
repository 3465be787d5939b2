package arduino

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/mathutil"
	"modernc.org/strutil"

	"layoutgen/pkg/contract"
)

// TestString: 烧录后由键盘逐字输出的可打印 ASCII（已按 C 字符串转义）。
const TestString = "abcdefghijklmnopqrstuvwxyz ABCDEFGHIJKLMNOPQRSTUVWXYZ 1234567890 !\\\"#$%&'()*+,-./:;<=>?@[\\\\]^_`{|}~"

// Options 为 Arduino 草图生成器的可选配置。
type Options struct {
	// Artifact: 输出文件名。默认 "test.ino"。
	Artifact string `json:"artifact"`
	// GroupSize: 每个 case 分组的布局数（受闪存容量限制）。默认 8。
	GroupSize int `json:"group_size"`
	// Part: 草图中 PART 变量初值（选择测试分组）。默认 1。
	Part int `json:"part"`
	// DefaultName: 内置布局的展示名。默认 "US ENGLISH"。
	DefaultName string `json:"default_name"`
	// DefaultDefine: 草图首行选择的内置布局宏。默认 "LAYOUT_US_ENGLISH"。
	DefaultDefine string `json:"default_define"`
	// Strict: 遇到 Undefined 表项时失败；否则写 0。
	Strict bool `json:"strict"`
}

// Emitter 生成 DigiKeyboard 测试草图：各布局 PROGMEM 表 + 分组调用 test()。
type Emitter struct {
	artifact string
	group    int
	part     int
	defName  string
	define   string
	strict   bool
}

// New 创建草图生成器。
func New(opts *Options) (*Emitter, error) {
	e := &Emitter{artifact: "test.ino", group: 8, part: 1, defName: "US ENGLISH", define: "LAYOUT_US_ENGLISH"}
	if opts == nil {
		return e, nil
	}
	if opts.GroupSize < 0 || opts.Part < 0 {
		return nil, fmt.Errorf("%w: group_size/part must be >= 0", contract.ErrInvalidInput)
	}
	if v := strings.TrimSpace(opts.Artifact); v != "" {
		e.artifact = v
	}
	if opts.GroupSize > 0 {
		e.group = opts.GroupSize
	}
	if opts.Part > 0 {
		e.part = opts.Part
	}
	if v := strings.TrimSpace(opts.DefaultName); v != "" {
		e.defName = v
	}
	if v := strings.TrimSpace(opts.DefaultDefine); v != "" {
		e.define = v
	}
	e.strict = opts.Strict
	return e, nil
}

var _ contract.Emitter = (*Emitter)(nil)

// Emit 按模板生成草图。
func (e *Emitter) Emit(ctx context.Context, res contract.Result) (contract.Artifact, error) {
	select {
	case <-ctx.Done():
		return contract.Artifact{}, ctx.Err()
	default:
	}
	if e.strict {
		if err := checkDefined(res); err != nil {
			return contract.Artifact{}, err
		}
	}

	var buf bytes.Buffer
	f := strutil.IndentFormatter(&buf, "  ")
	p := func(format string, args ...any) { _, _ = f.Format(format, args...) }

	p("#define %s\n", e.define)
	p("#include \"DigiKeyboard.h\"\n\n")
	for _, l := range res.Layouts {
		p("const uint16_t %s[] PROGMEM = {%s};\n", l.Name, joinTable(l.Table))
	}
	p("\nconst char TEST_STRING[] PROGMEM = {\"%s\"};\n\n", TestString)

	// 宽度仅由布局名决定，默认名不参与
	width := 0
	for _, l := range res.Layouts {
		width = mathutil.Max(width, len(l.Name))
	}
	width += 2

	p("void setup() {\n%i")
	p("DigiKeyboard.sendKeyStroke(0);\n")
	p("test((char*) \"%s\");\n\n", padEnd(e.defName, width))
	p("byte PART = %d;\n\n", e.part)
	p("switch (PART) {\n%i")
	for i, l := range res.Layouts {
		if i%e.group == 0 {
			if i > 0 {
				p("break;\n\n%u")
			}
			p("case (%d):\n%i", i/e.group+1)
		}
		p("test((char*) \"%s\", %s);\n", padEnd(strings.ReplaceAll(l.Name, "_", " "), width), l.Name)
	}
	if len(res.Layouts) > 0 {
		p("break;\n%u")
	}
	p("%u}\n%u}\n\n")

	p("void loop() {\n%idelay(100);\n%u}\n\n")
	p("void test(char name[]) {\n%i")
	p("DigiKeyboard.print(name);\n")
	p("for (byte i = 0; i < strlen_P(TEST_STRING); i++)\n%i")
	p("DigiKeyboard.print((char) pgm_read_byte_near(TEST_STRING + i));\n%u")
	p("DigiKeyboard.println();\n%u}\n\n")
	p("void test(char name[], const uint16_t language[]) {\n%i")
	p("for (byte i = 0; i < %d; i++)\n%i", contract.TableSize)
	p("keycodes_ascii[i] = pgm_read_byte_near(language + i);\n%u")
	p("test(name);\n%u}\n\n")
	p("/*\n%iClick here and let it write:\n\n\n\n%u*/\n")

	return contract.Artifact{ID: contract.ArtifactID(e.artifact), Body: &buf}, nil
}

// joinTable 以 ", " 连接 96 项；Undefined 写作 0。
func joinTable(t contract.Table) string {
	parts := make([]string, len(t))
	for i, v := range t {
		if v == contract.Undefined {
			v = 0
		}
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func padEnd(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// checkDefined 在存在 Undefined 表项时返回 ErrUnresolved（列出前若干项）。
func checkDefined(res contract.Result) error {
	var gaps []string
	for _, l := range res.Layouts {
		for _, code := range l.Table.Missing() {
			gaps = append(gaps, l.Name+"."+contract.ASCIIName(code))
		}
	}
	if len(gaps) == 0 {
		return nil
	}
	const show = 8
	more := ""
	if len(gaps) > show {
		more = fmt.Sprintf(" (+%d more)", len(gaps)-show)
		gaps = gaps[:show]
	}
	return fmt.Errorf("%w: %s%s", contract.ErrUnresolved, strings.Join(gaps, ", "), more)
}
