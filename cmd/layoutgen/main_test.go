package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "layoutgen/internal/config"
	"layoutgen/internal/diag"
	"layoutgen/internal/pipeline"
	"layoutgen/pkg/contract"
)

func resetFlag(args []string) {
	flag.CommandLine = flag.NewFlagSet(args[0], flag.ContinueOnError)
	os.Args = args
}

// chdirTemp 切换到临时目录并在结束时恢复。
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return dir
}

// templateEnv 以模板配置（输出到 dir/out，日志写 stderr）设置 LAYOUTGEN_CONFIG_JSON。
func templateEnv(t *testing.T, dir string, edit func(*cfgpkg.Config)) {
	t.Helper()
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Logging.Dir = ""
	cfg.Options.Writer, _ = cfgpkg.SetOption(cfg.Options.Writer, "output_dir", filepath.Join(dir, "out"))
	if edit != nil {
		edit(&cfg)
	}
	b, _ := json.Marshal(cfg)
	t.Setenv("LAYOUTGEN_CONFIG_JSON", string(b))
}

// stubRun 替换 pipelineRun 并记录 Settings。
func stubRun(t *testing.T, err error) *pipeline.Settings {
	t.Helper()
	got := &pipeline.Settings{Input: "<not called>"}
	orig := pipelineRun
	pipelineRun = func(ctx context.Context, comp pipeline.Components, set pipeline.Settings, logger *diag.Logger) (pipeline.Summary, error) {
		*got = set
		return pipeline.Summary{Artifact: "test.ino"}, err
	}
	t.Cleanup(func() { pipelineRun = orig })
	return got
}

// UT-CLI-01: 生成默认配置与 .env
func TestRunInitConfig(t *testing.T) {
	dir := chdirTemp(t)
	outDir := filepath.Join(dir, "cfg")
	resetFlag([]string{"layoutgen", "--init-config", outDir})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	b, err := os.ReadFile(filepath.Join(outDir, defaultConfigFile))
	if err != nil {
		t.Fatalf("config not generated: %v", err)
	}
	if _, err := cfgpkg.LoadJSON("", b); err != nil {
		t.Fatalf("模板应可被严格解析: %v", err)
	}
	env, err := os.ReadFile(filepath.Join(outDir, ".env"))
	if err != nil || !strings.Contains(string(env), "LAYOUTGEN_OPTIONS_EMITTER__ARDUINO_JSON=") {
		t.Fatalf(".env 模板错误: %v", err)
	}
	// 已存在时不覆盖并返回 3
	resetFlag([]string{"layoutgen", "--init-config", outDir})
	if code := run(); code != 3 {
		t.Fatalf("expect 3, got %d", code)
	}
}

// UT-CLI-02: 裸 --init-config 使用当前目录
func TestRunInitConfigDefault(t *testing.T) {
	dir := chdirTemp(t)
	resetFlag([]string{"layoutgen", "--init-config"})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, defaultConfigFile)); err != nil {
		t.Fatalf("config not generated: %v", err)
	}
}

// UT-CLI-03: 成功路径，CLI 覆盖 JSON
func TestRunSuccessCLIOverrides(t *testing.T) {
	dir := chdirTemp(t)
	templateEnv(t, dir, nil)
	got := stubRun(t, nil)
	resetFlag([]string{"layoutgen", "--status=false", "--strict", "--emitter", "json", "--out", filepath.Join(dir, "gen"), "keylayouts.h"})
	if code := run(); code != 0 {
		t.Fatalf("run return %d", code)
	}
	if got.Input != "keylayouts.h" || !got.Strict {
		t.Fatalf("CLI 覆盖未生效: %+v", *got)
	}
}

// UT-CLI-04: ENV 覆盖 JSON，CLI 覆盖 ENV
func TestRunPrecedence(t *testing.T) {
	dir := chdirTemp(t)
	templateEnv(t, dir, func(c *cfgpkg.Config) { c.Input = "json.h" })
	t.Setenv("LAYOUTGEN_INPUT", "env.h")
	got := stubRun(t, nil)
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 0 || got.Input != "env.h" {
		t.Fatalf("ENV 应覆盖 JSON: %d %+v", code, *got)
	}
	resetFlag([]string{"layoutgen", "--status=false", "--input", "cli.h"})
	if code := run(); code != 0 || got.Input != "cli.h" {
		t.Fatalf("CLI 应覆盖 ENV: %d %+v", code, *got)
	}
}

// UT-CLI-05: 默认读取 ./layoutgen.json 与 .env
func TestRunDefaultConfigFileAndDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Logging.Dir = ""
	cfg.Options.Writer, _ = cfgpkg.SetOption(cfg.Options.Writer, "output_dir", filepath.Join(dir, "out"))
	if err := writeConfig(defaultConfigFile, cfg); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(".env", []byte("# c\nexport LAYOUTGEN_INPUT=\"from env.h\"\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("LAYOUTGEN_INPUT", "")
	os.Unsetenv("LAYOUTGEN_INPUT")
	got := stubRun(t, nil)
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 0 || got.Input != "from env.h" {
		t.Fatalf("应读取 .env 与默认配置: %d %+v", code, *got)
	}
}

// UT-CLI-06: 配置错误返回 3
func TestRunConfigErrors(t *testing.T) {
	dir := chdirTemp(t)
	resetFlag([]string{"layoutgen", "--config", "missing.json"})
	if code := run(); code != 3 {
		t.Fatalf("缺失配置文件: expect 3, got %d", code)
	}

	templateEnv(t, dir, func(c *cfgpkg.Config) { c.Input = "" })
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 3 {
		t.Fatalf("缺少输入: expect 3, got %d", code)
	}

	templateEnv(t, dir, func(c *cfgpkg.Config) { c.Options.Reader = json.RawMessage(`{"unknown":1}`) })
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 3 {
		t.Fatalf("装配失败: expect 3, got %d", code)
	}

	templateEnv(t, dir, nil)
	resetFlag([]string{"layoutgen", "--strict=maybe"})
	if code := run(); code != 3 {
		t.Fatalf("非法 --strict: expect 3, got %d", code)
	}
}

// UT-CLI-07: 显式 --strict=false 覆盖 JSON 中的 true
func TestRunStrictFalseOverride(t *testing.T) {
	dir := chdirTemp(t)
	yes := true
	templateEnv(t, dir, func(c *cfgpkg.Config) { c.Strict = &yes })
	got := stubRun(t, nil)
	resetFlag([]string{"layoutgen", "--status=false", "--strict=false"})
	if code := run(); code != 0 || got.Strict {
		t.Fatalf("--strict=false 应覆盖配置: %d %+v", code, *got)
	}
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 0 || !got.Strict {
		t.Fatalf("未给出 --strict 时应保留配置: %d %+v", code, *got)
	}
}

// UT-CLI-08: 运行期错误返回 1
func TestRunPipelineError(t *testing.T) {
	dir := chdirTemp(t)
	templateEnv(t, dir, nil)
	stubRun(t, errors.New("boom"))
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 1 {
		t.Fatalf("expect 1, got %d", code)
	}
	stubRun(t, contract.ErrUnresolved)
	resetFlag([]string{"layoutgen", "--status=false"})
	if code := run(); code != 1 {
		t.Fatalf("严格模式失败 expect 1, got %d", code)
	}
}

// UT-CLI-09: 工具函数
func TestHelpers(t *testing.T) {
	if unquote(`"a\tb"`) != "a\tb" || unquote(`'x\n'`) != `x\n` || unquote(`"`) != `"` || unquote(`a"`) != `a"` {
		t.Fatalf("unquote 错误")
	}
	if len(genCorrID()) != 32 {
		t.Fatalf("corr id 长度错误")
	}
	os.Args = []string{"layoutgen", "--init-config", "--status=false"}
	normalizeArgs()
	if len(os.Args) != 4 || os.Args[2] != "." {
		t.Fatalf("normalizeArgs 错误: %v", os.Args)
	}
	r, w, _ := os.Pipe()
	old := os.Stdout
	os.Stdout = w
	err := writeConfig("-", cfgpkg.Defaults())
	w.Close()
	os.Stdout = old
	r.Close()
	if err != nil {
		t.Fatalf("writeConfig stdout: %v", err)
	}
}
