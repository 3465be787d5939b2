package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"layoutgen/internal/diag"
	"layoutgen/internal/keymap"
	"layoutgen/pkg/contract"
)

// 单次运行：Reader → Segmenter → keymap.Assemble → Emitter → Writer。
// - 所有组件均为同步实现，本层只负责编排、日志与计数；
// - 诊断不打断运行，逐条记为 warn 事件；严格模式下在写出前失败。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader    contract.Reader
	Segmenter contract.Segmenter
	Emitter   contract.Emitter
	Writer    contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Input: 头文件路径；"-" 或空为 STDIN。
	Input string
	// Strict: 任一诊断即以 contract.ErrUnresolved 失败，不写出工件。
	Strict bool
}

// Summary: 运行结果摘要。
type Summary struct {
	Source      contract.SourceID
	Layouts     []string
	Diagnostics map[contract.DiagKind]int
	Artifact    contract.ArtifactID
}

// DiagTotal 返回诊断总数。
func (s Summary) DiagTotal() int {
	n := 0
	for _, v := range s.Diagnostics {
		n += v
	}
	return n
}

// Run 执行完整流水线并返回摘要；出错时摘要包含已完成阶段的信息。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Summary, error) {
	sum := Summary{Diagnostics: map[contract.DiagKind]int{}}
	if err := sanity(comp); err != nil {
		return sum, fmt.Errorf("sanity: %w", err)
	}
	runStart := time.Now()
	term := diag.GetTerminal()
	ok := false
	defer func() { term.RunFinish(ok, string(sum.Artifact), time.Since(runStart)) }()

	// 读取
	rt := logger.StartWithKV("reader", "open", map[string]string{"input": set.Input})
	id, rc, err := comp.Reader.Open(ctx, set.Input)
	if err != nil {
		return sum, stageErr(logger, "reader", "open failed", rt, err)
	}
	defer rc.Close()
	rt.Finish("open", 0)
	diag.IncOp("reader", "finish", "success")
	sum.Source = id

	// 分段
	st := logger.StartWithKV("segmenter", "segment", map[string]string{"source": string(id)})
	secs, err := comp.Segmenter.Segment(ctx, id, rc)
	if err != nil {
		return sum, stageErr(logger, "segmenter", "segment failed", st, err)
	}
	st.Finish("segment", int64(len(secs.Layouts)))
	diag.IncOp("segmenter", "finish", "success")

	// 解析与组装
	report := func(d contract.Diagnostic) {
		sum.Diagnostics[d.Kind]++
		term.Diag()
		kv := map[string]string{"name": d.Name}
		if d.Layout != "" {
			kv["layout"] = d.Layout
		}
		if d.Term != "" {
			kv["term"] = d.Term
		}
		if d.Line > 0 {
			kv["line"] = strconv.Itoa(d.Line)
		}
		logger.Warn("keymap", string(d.Kind), d.String(), kv)
		diag.IncOp("keymap", "diag", string(d.Kind))
	}
	at := logger.Start("keymap", "assemble")
	res, base, err := keymap.AssembleWithBase(secs.Default, secs.Layouts, report)
	if err != nil {
		return sum, stageErr(logger, "keymap", "assemble failed", at, err)
	}
	at.Finish("assemble", int64(len(res.Layouts)))
	diag.IncOp("keymap", "finish", "success")
	logger.Dump("keymap", "default mapping", map[string]int(base))
	for _, l := range res.Layouts {
		sum.Layouts = append(sum.Layouts, l.Name)
		term.Layout(l.Name, len(l.Table.Missing()))
	}

	if set.Strict && sum.DiagTotal() > 0 {
		err := fmt.Errorf("%w: %s", contract.ErrUnresolved, formatKinds(sum.Diagnostics))
		return sum, stageErr(logger, "pipeline", "strict mode", nil, err)
	}

	// 生成
	et := logger.Start("emitter", "emit")
	art, err := comp.Emitter.Emit(ctx, res)
	if err != nil {
		return sum, stageErr(logger, "emitter", "emit failed", et, err)
	}
	et.Finish("emit", 0)
	diag.IncOp("emitter", "finish", "success")

	// 写出
	wt := logger.StartWithKV("writer", "write", map[string]string{"artifact": string(art.ID)})
	if err := comp.Writer.Write(ctx, art.ID, art.Body); err != nil {
		return sum, stageErr(logger, "writer", "write failed", wt, err)
	}
	wt.Finish("write", 0)
	diag.IncOp("writer", "finish", "success")
	sum.Artifact = art.ID
	ok = true
	return sum, nil
}

// stageErr 记录错误事件与计数，并以阶段名包装。
func stageErr(logger *diag.Logger, comp, msg string, t *diag.Timer, err error) error {
	code := diag.Classify(err)
	logger.ErrorWithKV(comp, string(code), msg+": "+err.Error(), t.Since(), nil)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
	return fmt.Errorf("%s: %w", comp, err)
}

// formatKinds: 按类别名排序的 "kind=n" 列表。
func formatKinds(m map[contract.DiagKind]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, m[contract.DiagKind(k)])
	}
	return out
}

func sanity(c Components) error {
	if c.Reader == nil || c.Segmenter == nil || c.Emitter == nil || c.Writer == nil {
		return errors.New("pipeline: missing components")
	}
	return nil
}
