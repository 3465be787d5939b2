package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Terminal: 终端状态提示（非日志）。
// - TTY: 布局行以 \r 单行覆盖；非 TTY: 每个布局一行。
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	input    string
	emitter  string
	layouts  int
	diags    int
	runStart time.Time
	lastLen  int

	mu sync.Mutex
}

// 进程级终端（可选，全局设置后供 pipeline 旁路调用）。
var (
	termMu sync.RWMutex
	term   *Terminal
)

// SetTerminal 设置全局终端指针（nil 可清除）。
func SetTerminal(t *Terminal) { termMu.Lock(); term = t; termMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil，方法均为 nil 安全）。
func GetTerminal() *Terminal { termMu.RLock(); defer termMu.RUnlock(); return term }

// NewTerminal 构造终端提示器；enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	if os.Getenv("CI") != "" {
		t.isTTY = false
	} else if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			t.isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}
	return t
}

// RunStart: 输入与输出格式。
func (t *Terminal) RunStart(input, emitter string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.input = shortenBase(input, 48)
	t.emitter = safe(emitter)
	t.layouts, t.diags = 0, 0
	t.runStart = time.Now()
	t.println(fmt.Sprintf("[run] 输入=%s | 输出=%s", t.input, t.emitter))
}

// Layout: 每生成一张布局表调用一次。
func (t *Terminal) Layout(name string, missing int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.layouts++
	line := fmt.Sprintf("[layout] #%d %s | 缺失 %d", t.layouts, safe(name), missing)
	if t.isTTY {
		t.printInline(line)
		return
	}
	t.println(line)
}

// Diag: 累加诊断数量（仅用于结束汇总）。
func (t *Terminal) Diag() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.diags++
	t.mu.Unlock()
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, artifact string, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] %s | 布局 %d | 诊断 %d | 总用时 %s",
		tag, safe(artifact), t.layouts, t.diags, formatDur(dur)))
}

func (t *Terminal) println(s string) {
	if t.lastLen > 0 {
		s = "\n" + s
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	if _, err := io.WriteString(t.w, "\r"+s+strings.Repeat(" ", pad)); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
	if s == "" {
		// 清尾后回到行首，后续 println 不再换行
		_, _ = io.WriteString(t.w, "\r")
		t.lastLen = 0
	}
}

// shortenBase: 取基名并按可见宽度截断（尾部省略号）。
func shortenBase(s string, max int) string {
	if max <= 0 {
		return ""
	}
	base := filepath.Base(strings.TrimSpace(s))
	rs := []rune(base)
	if len(rs) <= max {
		return base
	}
	cut := max - 1
	if cut < 1 {
		cut = 1
	}
	return string(rs[:cut]) + "…"
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
}
