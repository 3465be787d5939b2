package jsontable

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"layoutgen/pkg/contract"
)

// Options: JSON 表生成器选项。
type Options struct {
	// Artifact: 输出文件名。默认 "layouts.json"。
	Artifact string `json:"artifact"`
	// Indent: 是否缩进输出。
	Indent bool `json:"indent"`
}

// Document: 输出结构；Undefined 表项编码为 null。
type Document struct {
	Default []*int      `json:"default"`
	Layouts []LayoutDoc `json:"layouts"`
}

// LayoutDoc: 单个布局。
type LayoutDoc struct {
	Name  string `json:"name"`
	Table []*int `json:"table"`
}

type emitter struct {
	artifact string
	indent   bool
}

// New 创建 JSON 表生成器。
func New(opts *Options) contract.Emitter {
	e := &emitter{artifact: "layouts.json"}
	if opts != nil {
		if v := strings.TrimSpace(opts.Artifact); v != "" {
			e.artifact = v
		}
		e.indent = opts.Indent
	}
	return e
}

func (e *emitter) Emit(ctx context.Context, res contract.Result) (contract.Artifact, error) {
	select {
	case <-ctx.Done():
		return contract.Artifact{}, ctx.Err()
	default:
	}
	doc := Document{Default: slots(res.Default), Layouts: make([]LayoutDoc, 0, len(res.Layouts))}
	for _, l := range res.Layouts {
		doc.Layouts = append(doc.Layouts, LayoutDoc{Name: l.Name, Table: slots(l.Table)})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if e.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return contract.Artifact{}, err
	}
	return contract.Artifact{ID: contract.ArtifactID(e.artifact), Body: &buf}, nil
}

func slots(t contract.Table) []*int {
	out := make([]*int, len(t))
	for i := range t {
		if t[i] == contract.Undefined {
			continue
		}
		v := t[i]
		out[i] = &v
	}
	return out
}
