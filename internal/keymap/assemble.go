package keymap

import (
	"strings"

	"layoutgen/pkg/contract"
)

// StopName: 布局发现的终止哨兵，不会出现在结果中。
const StopName = "UNSPECIFIED"

// Assemble 先以空 base 解析默认分段得到默认映射与默认表，
// 再以默认映射为 base 依序解析每个布局分段，并在默认映射之上建表。
// 遇到名为 StopName 的分段即停止。默认分段为空或无任何布局属于致命配置错误，此时不产出任何表。
func Assemble(def contract.Section, layouts []contract.Section, report contract.ReportFunc) (contract.Result, error) {
	res, _, err := AssembleWithBase(def, layouts, report)
	return res, err
}

// Overlay 返回 base 之上叠加 local 的新映射；二者均不被修改。
// 布局分段未覆盖的 ASCII_ 项沿用默认映射中的值。
func Overlay(base, local contract.Mapping) contract.Mapping {
	out := make(contract.Mapping, len(base)+len(local))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	return out
}

// AssembleWithBase 与 Assemble 相同，额外返回默认映射（供调试输出）。
func AssembleWithBase(def contract.Section, layouts []contract.Section, report contract.ReportFunc) (contract.Result, contract.Mapping, error) {
	if strings.TrimSpace(def.Text) == "" {
		return contract.Result{}, nil, contract.ErrNoDefaultSection
	}
	n := 0
	for _, s := range layouts {
		if s.Name == StopName {
			break
		}
		n++
	}
	if n == 0 {
		return contract.Result{}, nil, contract.ErrNoLayouts
	}

	base := resolveIn(def.Name, ParseSection(def.Name, def.Text, report), nil, report)
	res := contract.Result{Default: BuildTable(base), Layouts: make([]contract.Layout, 0, n)}
	// 默认分段常只承载 KEY_* 等基础名；完全没有 ASCII_ 项时不视为缺口。
	if len(res.Default.Missing()) < contract.TableSize {
		reportMissing(def.Name, res.Default, report)
	}

	for _, s := range layouts[:n] {
		m := resolveIn(s.Name, ParseSection(s.Name, s.Text, report), base, report)
		t := BuildTable(Overlay(base, m))
		reportMissing(s.Name, t, report)
		res.Layouts = append(res.Layouts, contract.Layout{Name: s.Name, Table: t})
	}
	return res, base, nil
}
