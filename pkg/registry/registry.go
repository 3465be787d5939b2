package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"layoutgen/pkg/contract"
	ard "layoutgen/plugins/emitter/arduino"
	jst "layoutgen/plugins/emitter/jsontable"
	rfs "layoutgen/plugins/reader/filesystem"
	sif "layoutgen/plugins/segmenter/ifdef"
	wfs "layoutgen/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: options: %v", contract.ErrConfigInvalid, err)
	}
	return nil
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewSegmenter 工厂签名：接收原样 JSON Options。
type NewSegmenter func(raw json.RawMessage) (contract.Segmenter, error)

// NewEmitter 工厂签名：接收原样 JSON Options。
type NewEmitter func(raw json.RawMessage) (contract.Emitter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Segmenter 工厂注册表。
var Segmenter = map[string]NewSegmenter{
	// ifdef: 默认分段 + #ifdef LAYOUT_<NAME> 守卫分段
	"ifdef": func(raw json.RawMessage) (contract.Segmenter, error) {
		var opts sif.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sif.New(&opts), nil
	},
}

// Emitter 工厂注册表。
var Emitter = map[string]NewEmitter{
	// arduino: test.ino 测试草图
	"arduino": func(raw json.RawMessage) (contract.Emitter, error) {
		var opts ard.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ard.New(&opts)
	},
	// json: 全部布局表的 JSON 文档
	"json": func(raw json.RawMessage) (contract.Emitter, error) {
		var opts jst.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return jst.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

// Names 返回排序后的注册名（用于帮助与错误信息）。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
