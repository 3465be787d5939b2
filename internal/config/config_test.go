package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"layoutgen/pkg/contract"
)

// UT-CFG-01: 解析完整 JSON 文件
func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layoutgen.json")
	raw := `{"input":"keylayouts.h","strict":true,"logging":{"level":"debug","dir":""},
"components":{"emitter":"json"},"options":{"emitter":{"json":{"indent":true}},"writer":{"output_dir":"out"}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadJSON(path, nil)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Input != "keylayouts.h" || !cfg.StrictValue() || cfg.Components.Emitter != "json" {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if string(cfg.Options.Emitter["json"]) != `{"indent":true}` {
		t.Fatalf("emitter options 错误: %s", cfg.Options.Emitter["json"])
	}
	if err := Validate(Merge(Defaults(), cfg)); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

// UT-CFG-02: 含非法字段
func TestLoadJSONUnknown(t *testing.T) {
	if _, err := LoadJSON("", []byte(`{"unknown":1}`)); !errors.Is(err, contract.ErrConfigInvalid) {
		t.Fatalf("应当返回配置错误: %v", err)
	}
	if _, err := LoadJSON("", nil); err == nil {
		t.Fatalf("无来源应报错")
	}
}

// UT-CFG-03: ENV 覆盖部分字段
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"LAYOUTGEN_INPUT=/tmp/keylayouts.h",
		"LAYOUTGEN_STRICT=false",
		"LAYOUTGEN_LOG_LEVEL=warn",
		"LAYOUTGEN_LOG_DIR=",
		"LAYOUTGEN_COMPONENTS_EMITTER=json",
		"LAYOUTGEN_OPTIONS_WRITER_JSON={\"output_dir\":\"gen\"}",
		"LAYOUTGEN_OPTIONS_EMITTER__ARDUINO_JSON={\"part\":2}",
		"OTHER_INPUT=x",
	}
	over, err := EnvOverlay(env)
	if err != nil {
		t.Fatalf("EnvOverlay 错误: %v", err)
	}
	if over.Input != "/tmp/keylayouts.h" || over.Strict == nil || *over.Strict || over.Logging.Level != "warn" {
		t.Fatalf("覆盖结果不正确: %+v", over)
	}
	if over.Logging.Dir != "" || over.Components.Emitter != "json" {
		t.Fatalf("覆盖结果不正确: %+v", over)
	}
	if string(over.Options.Emitter["arduino"]) != `{"part":2}` || string(over.Options.Writer) != `{"output_dir":"gen"}` {
		t.Fatalf("options 覆盖不正确: %+v", over.Options)
	}
	if _, err := EnvOverlay([]string{"LAYOUTGEN_STRICT=maybe"}); !errors.Is(err, contract.ErrConfigInvalid) {
		t.Fatalf("非法布尔值应报错: %v", err)
	}
}

// UT-CFG-04: Merge 优先级与 Strict 显式 false
func TestMerge(t *testing.T) {
	yes, no := true, false
	base := DefaultTemplateConfig()
	base.Strict = &yes
	over := Config{Strict: &no, Input: " a.h ", Components: Components{Emitter: "json"}}
	over.Options.Emitter = map[string]json.RawMessage{"json": json.RawMessage(`{}`)}
	out := Merge(base, over)
	if out.StrictValue() || out.Input != "a.h" || out.Components.Emitter != "json" || out.Components.Reader != "fs" {
		t.Fatalf("合并错误: %+v", out)
	}
	if len(out.Options.Emitter) != 2 || string(out.Options.Emitter["json"]) != `{}` {
		t.Fatalf("emitter options 合并错误: %v", out.Options.Emitter)
	}
	if len(base.Options.Emitter["json"]) == 2 {
		t.Fatalf("Merge 不应修改 base")
	}
	if Merge(base, Config{}).Strict == nil {
		t.Fatalf("未设置的 Strict 不应覆盖")
	}
}

// UT-CFG-05: SetOption 写入单键
func TestSetOption(t *testing.T) {
	raw, err := SetOption(json.RawMessage(`{"output_dir":"out","atomic":true}`), "output_dir", "gen")
	if err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	var m map[string]interface{}
	_ = json.Unmarshal(raw, &m)
	if m["output_dir"] != "gen" || m["atomic"] != true {
		t.Fatalf("结果错误: %s", raw)
	}
	if raw, err := SetOption(nil, "strict", true); err != nil || string(raw) != `{"strict":true}` {
		t.Fatalf("空对象: %s %v", raw, err)
	}
	if _, err := SetOption(json.RawMessage(`[1]`), "x", 1); !errors.Is(err, contract.ErrConfigInvalid) {
		t.Fatalf("非对象应报错: %v", err)
	}
}

// UT-CFG-06: Validate 错误分支
func TestValidateErrors(t *testing.T) {
	if err := Validate(Config{}); !errors.Is(err, contract.ErrConfigInvalid) {
		t.Fatal("空配置应失败")
	}
	cfg := DefaultTemplateConfig()
	cfg.Logging.Level = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("非法日志级别应失败")
	}
	cfg = DefaultTemplateConfig()
	cfg.Components.Emitter = "c99"
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "arduino, json") {
		t.Fatalf("未注册 emitter 应列出已知名: %v", err)
	}
}

// UT-CFG-07: 模板可装配
func TestAssembleTemplate(t *testing.T) {
	cfg := DefaultTemplateConfig()
	raw, _ := SetOption(cfg.Options.Writer, "output_dir", t.TempDir())
	cfg.Options.Writer = raw
	comp, set, err := Assemble(cfg)
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	if comp.Reader == nil || comp.Segmenter == nil || comp.Emitter == nil || comp.Writer == nil {
		t.Fatalf("组件缺失: %+v", comp)
	}
	if set.Input != "-" || set.Strict {
		t.Fatalf("settings 错误: %+v", set)
	}
	cfg.Options.Emitter["arduino"] = json.RawMessage(`{"bogus":1}`)
	if _, _, err := Assemble(cfg); !errors.Is(err, contract.ErrConfigInvalid) {
		t.Fatalf("未知 emitter 选项应失败: %v", err)
	}
}
