package keymap

import (
	"testing"

	"layoutgen/pkg/contract"
)

func fullMapping() contract.Mapping {
	m := contract.Mapping{}
	for code := contract.FirstCode; code < contract.FirstCode+contract.TableSize; code++ {
		m[contract.ASCIIName(code)] = code
	}
	return m
}

// UT-TBL-01: 96 项且下标对应 0x20+i
func TestBuildTableFull(t *testing.T) {
	tb := BuildTable(fullMapping())
	if len(tb) != 96 {
		t.Fatalf("长度错误: %d", len(tb))
	}
	for i, v := range tb {
		if v != contract.FirstCode+i {
			t.Fatalf("下标 %d 期望 %d 实得 %d", i, contract.FirstCode+i, v)
		}
	}
}

// UT-TBL-02: 缺失 ASCII_5A 仅影响 'Z'
func TestBuildTableMissingZ(t *testing.T) {
	m := fullMapping()
	delete(m, "ASCII_5A")
	tb := BuildTable(m)
	for i, v := range tb {
		code := contract.FirstCode + i
		if code == 'Z' {
			if v != contract.Undefined {
				t.Fatalf("'Z' 应为 Undefined, 实得 %d", v)
			}
			continue
		}
		if v != code {
			t.Fatalf("下标 %d 不应受影响: %d", i, v)
		}
	}
	if miss := tb.Missing(); len(miss) != 1 || miss[0] != 'Z' {
		t.Fatalf("缺失列表错误: %v", miss)
	}
}

// UT-TBL-03: 空映射全部为 Undefined
func TestBuildTableEmpty(t *testing.T) {
	tb := BuildTable(nil)
	if len(tb.Missing()) != contract.TableSize {
		t.Fatalf("空映射应全部缺失")
	}
}
