package config

import "encoding/json"

// DefaultTemplateConfig 返回可直接运行的配置模板：
// 输入为 STDIN，输出到 ./out，所有选项键均列出中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	strict := false
	cfg := Config{
		Input:      "-",
		Strict:     &strict,
		Logging:    Logging{Level: "info", Dir: "logs"},
		Components: d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "max_bytes": 0
}`)
	cfg.Options.Segmenter = json.RawMessage(`{
  "default_marker": "#define LAYOUT_UNSPECIFIED",
  "default_end": "",
  "guard_prefix": "#ifdef LAYOUT_",
  "stop_name": "UNSPECIFIED",
  "last_entry": "#define ASCII_7F"
}`)
	cfg.Options.Emitter = map[string]json.RawMessage{
		"arduino": json.RawMessage(`{
  "artifact": "test.ino",
  "group_size": 8,
  "part": 1,
  "default_name": "US ENGLISH",
  "default_define": "LAYOUT_US_ENGLISH",
  "strict": false
}`),
		"json": json.RawMessage(`{
  "artifact": "layouts.json",
  "indent": true
}`),
	}
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0
}`)
	return cfg
}
