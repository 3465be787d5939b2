package contract

import "errors"

// 最小错误分类（哨兵）。
var (
	// ErrMalformedLine: define 行缺少名称/取值分隔。
	ErrMalformedLine = errors.New("malformed definition line")
	// ErrNoDefaultSection: 未找到默认（LAYOUT_UNSPECIFIED）分段。
	ErrNoDefaultSection = errors.New("default layout section not found")
	// ErrNoLayouts: 未发现任何布局分段。
	ErrNoLayouts = errors.New("no layout sections found")
	// ErrUnresolved: 严格模式下存在未解析项或缺失表项。
	ErrUnresolved = errors.New("unresolved definitions")
	// ErrPathInvalid: 工件标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrConfigInvalid: 配置缺失字段、组件未注册或选项无法解析。
	ErrConfigInvalid = errors.New("config invalid")
	// ErrInvalidInput: 输入或选项不合法。
	ErrInvalidInput = errors.New("invalid input")
)
