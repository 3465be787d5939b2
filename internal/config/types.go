package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 头文件路径；"-" 表示 STDIN。
	Input string `json:"input"`
	// Strict: 任何诊断都视为失败。nil 表示未设置（Merge 不覆盖）。
	Strict  *bool   `json:"strict,omitempty"`
	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级与落盘目录（空目录写 stderr）。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader    string `json:"reader"`
	Segmenter string `json:"segmenter"`
	Emitter   string `json:"emitter"`
	Writer    string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
// Emitter 按实现名分组，切换 emitter 时不会把别家的键交给严格解析。
type Options struct {
	Reader    json.RawMessage            `json:"reader,omitempty"`
	Segmenter json.RawMessage            `json:"segmenter,omitempty"`
	Emitter   map[string]json.RawMessage `json:"emitter,omitempty"`
	Writer    json.RawMessage            `json:"writer,omitempty"`
}

// StrictValue 返回 Strict 的有效值。
func (c Config) StrictValue() bool { return c.Strict != nil && *c.Strict }
