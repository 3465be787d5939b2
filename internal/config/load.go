package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"layoutgen/pkg/contract"
)

// EnvPrefix: 环境变量前缀。
const EnvPrefix = "LAYOUTGEN_"

// Defaults 返回带有安全默认值的 Config 雏形。Input 不设默认。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader:    "fs",
			Segmenter: "ifdef",
			Emitter:   "arduino",
			Writer:    "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", contract.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量与原样 JSON 整体替换；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.Input); s != "" {
		out.Input = s
	}
	if over.Strict != nil {
		v := *over.Strict
		out.Strict = &v
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Segmenter != "" {
		out.Components.Segmenter = over.Components.Segmenter
	}
	if over.Components.Emitter != "" {
		out.Components.Emitter = over.Components.Emitter
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Segmenter) > 0 {
		out.Options.Segmenter = cloneRaw(over.Options.Segmenter)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	if len(over.Options.Emitter) > 0 {
		m := make(map[string]json.RawMessage, len(out.Options.Emitter)+len(over.Options.Emitter))
		for k, v := range out.Options.Emitter {
			m[k] = v
		}
		for k, v := range over.Options.Emitter {
			m[k] = cloneRaw(v)
		}
		out.Options.Emitter = m
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 支持：INPUT, STRICT, LOG_LEVEL, LOG_DIR, COMPONENTS_{READER,SEGMENTER,EMITTER,WRITER},
// OPTIONS_{READER,SEGMENTER,WRITER}_JSON 与 OPTIONS_EMITTER__<name>_JSON。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值不覆盖 config.json
			continue
		}
		switch key {
		case "INPUT":
			over.Input = val
		case "STRICT":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s%s=%q", contract.ErrConfigInvalid, EnvPrefix, key, val)
			}
			over.Strict = &b
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_SEGMENTER":
			over.Components.Segmenter = val
		case "COMPONENTS_EMITTER":
			over.Components.Emitter = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		case "OPTIONS_READER_JSON":
			over.Options.Reader = json.RawMessage(val)
		case "OPTIONS_SEGMENTER_JSON":
			over.Options.Segmenter = json.RawMessage(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = json.RawMessage(val)
		default:
			// OPTIONS_EMITTER__<name>_JSON
			if strings.HasPrefix(key, "OPTIONS_EMITTER__") && strings.HasSuffix(key, "_JSON") {
				name := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(key, "OPTIONS_EMITTER__"), "_JSON"))
				if name == "" {
					continue
				}
				if over.Options.Emitter == nil {
					over.Options.Emitter = map[string]json.RawMessage{}
				}
				over.Options.Emitter[name] = json.RawMessage(val)
			}
		}
	}
	return over, nil
}

// SetOption 在 raw 对象上设置单个键并返回新 JSON（raw 为空视为 {}）。
func SetOption(raw json.RawMessage, key string, val interface{}) (json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: options: %v", contract.ErrConfigInvalid, err)
		}
	}
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	m[key] = b
	return json.Marshal(m)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
