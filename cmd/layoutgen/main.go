package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cfgpkg "layoutgen/internal/config"
	"layoutgen/internal/diag"
	"layoutgen/internal/pipeline"
)

var pipelineRun = pipeline.Run

const defaultConfigFile = "layoutgen.json"

// 用法：layoutgen [flags] [keylayouts.h | -]
// 位置参数与 --input 等价（位置参数优先）。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := genCorrID()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")
	// 占位 logger（stderr）；配置合并后按最终 level/dir 重建
	logger := diag.NewLogger(corrID, "info", "")
	var (
		flagConfig   string
		flagInput    string
		flagOut      string
		flagEmitter  string
		flagLogLevel string
		flagStrict   bool
		flagInitDir  string
		flagStatus   bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./"+defaultConfigFile+"（若存在）")
	flag.StringVar(&flagInput, "input", "", "keylayouts.h 路径；\"-\" 表示 STDIN")
	flag.StringVar(&flagOut, "out", "", "输出目录（覆盖 options.writer.output_dir）")
	flag.StringVar(&flagEmitter, "emitter", "", "输出格式：arduino | json")
	flag.StringVar(&flagLogLevel, "log-level", "", "日志级别：debug | info | warn | error")
	flag.BoolVar(&flagStrict, "strict", false, "任一诊断即失败（未解析项、缺失表项等）")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成 "+defaultConfigFile+" 与 .env 模板（不覆盖）；不带值时为当前目录")
	flag.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）")
	normalizeArgs()
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return 3
	}

	if dir := strings.TrimSpace(flagInitDir); dir != "" {
		if err := initConfig(dir); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "init-config", &start)
			return 3
		}
		return 0
	}

	cfg, err := loadConfig(flagConfig)
	if err != nil {
		fprintf(os.Stderr, "配置解析失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "load", &start)
		return 3
	}

	// CLI 覆盖
	var overCLI cfgpkg.Config
	overCLI.Input = flagInput
	if args := flag.Args(); len(args) > 0 {
		overCLI.Input = args[0]
	}
	overCLI.Components.Emitter = flagEmitter
	overCLI.Logging.Level = flagLogLevel
	// 仅显式给出的 --strict 参与覆盖（含 --strict=false）
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "strict" {
			overCLI.Strict = &flagStrict
		}
	})
	cfg = cfgpkg.Merge(cfg, overCLI)
	if out := strings.TrimSpace(flagOut); out != "" {
		raw, serr := cfgpkg.SetOption(cfg.Options.Writer, "output_dir", out)
		if serr != nil {
			fprintf(os.Stderr, "配置解析失败: %v\n", serr)
			return 3
		}
		cfg.Options.Writer = raw
	}

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(cfg)
		logger.Error("config", string(diag.Classify(err)), "validate", &start)
		return 3
	}

	logger = diag.NewLogger(corrID, cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Close()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble", &start)
		return 3
	}
	logger.Dump("config", "effective", map[string]string{
		"input":     set.Input,
		"strict":    strconv.FormatBool(set.Strict),
		"reader":    cfg.Components.Reader,
		"segmenter": cfg.Components.Segmenter,
		"emitter":   cfg.Components.Emitter,
		"writer":    cfg.Components.Writer,
	})

	term := diag.NewTerminal(os.Stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	emitter := cfg.Components.Emitter
	if emitter == "" {
		emitter = cfgpkg.Defaults().Components.Emitter
	}
	term.RunStart(set.Input, emitter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	sum, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error: "+err.Error(), &start)
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "运行失败: %v\n", err)
		}
		return 1
	}
	t.Finish("run", int64(len(sum.Layouts)))
	diag.IncOp("pipeline", "finish", "success")
	for _, m := range diag.Snapshot() {
		logger.Dump("metrics", m.Key, m.Value)
	}
	return 0
}

// loadConfig: 默认值 < JSON（--config / ENV / ./layoutgen.json）< ENV 覆盖。
func loadConfig(path string) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()
	var raw []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		raw = []byte(s)
	}
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" || len(raw) > 0 {
		base, err := cfgpkg.LoadJSON(path, raw)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	over, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	return cfgpkg.Merge(cfg, over), nil
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, defaultConfigFile), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

// writeConfig 不覆盖已存在文件；path 为 "-" 时写 stdout。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// loadDotEnv 读取简单的 .env 文件并注入进程环境（已存在的变量优先）。
// 支持 "export " 前缀、# 注释与成对引号；双引号内处理 \n \t \r \" \\。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func unquote(val string) string {
	if len(val) < 2 {
		return val
	}
	q := val[0]
	if (q != '\'' && q != '"') || val[len(val)-1] != q {
		return val
	}
	val = val[1 : len(val)-1]
	if q == '"' {
		val = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`).Replace(val)
	}
	return val
}

// normalizeArgs: 裸 --init-config（末尾或后接开关）补默认值 "."。
func normalizeArgs() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}

// writeDotEnv 生成 .env 模板（已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# layoutgen .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > JSON；空值表示未设置。\n\n")
	b.WriteString("# 配置来源（二选一）\n")
	for _, k := range []string{"CONFIG_FILE", "CONFIG_JSON"} {
		b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 运行参数\n")
	for _, k := range []string{"INPUT", "STRICT", "LOG_LEVEL", "LOG_DIR"} {
		b.WriteString(cfgpkg.EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 组件选择\n")
	for _, k := range []string{"READER", "SEGMENTER", "EMITTER", "WRITER"} {
		b.WriteString(cfgpkg.EnvPrefix + "COMPONENTS_" + k + "=\n")
	}
	b.WriteString("\n# 组件选项（原样 JSON）\n")
	for _, k := range []string{"READER", "SEGMENTER", "WRITER", "EMITTER__ARDUINO", "EMITTER__JSON"} {
		b.WriteString(cfgpkg.EnvPrefix + "OPTIONS_" + k + "_JSON=\n")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}
