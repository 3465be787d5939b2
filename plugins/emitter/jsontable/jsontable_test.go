package jsontable

import (
	"context"
	"encoding/json"
	"testing"

	"layoutgen/pkg/contract"
)

// UT-JSN-01: Undefined 编码为 null，布局保持顺序
func TestEmit(t *testing.T) {
	var tb contract.Table
	for i := range tb {
		tb[i] = i
	}
	tb[0x5A-contract.FirstCode] = contract.Undefined
	res := contract.Result{Default: tb, Layouts: []contract.Layout{{Name: "B", Table: tb}, {Name: "A", Table: tb}}}
	art, err := New(&Options{Indent: true}).Emit(context.Background(), res)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if art.ID != "layouts.json" {
		t.Fatalf("工件名错误: %s", art.ID)
	}
	var doc Document
	if err := json.NewDecoder(art.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Default) != contract.TableSize || doc.Default[0x5A-contract.FirstCode] != nil {
		t.Fatalf("默认表错误")
	}
	if *doc.Default[1] != 1 {
		t.Fatalf("取值错误: %d", *doc.Default[1])
	}
	if len(doc.Layouts) != 2 || doc.Layouts[0].Name != "B" || doc.Layouts[1].Name != "A" {
		t.Fatalf("布局顺序错误: %+v", doc.Layouts)
	}
}

// UT-JSN-02: 取消
func TestEmitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Emit(ctx, contract.Result{}); err == nil {
		t.Fatalf("应返回取消错误")
	}
}
