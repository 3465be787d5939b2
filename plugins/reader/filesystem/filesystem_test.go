package filesystem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"layoutgen/pkg/contract"
)

// TestOpenFile 读取单文件
func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "keylayouts.h")
	os.WriteFile(fp, []byte("#define A 1"), 0o644)
	id, rc, err := New(nil).Open(context.Background(), fp)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "#define A 1" {
		t.Fatalf("内容错误: %q", string(b))
	}
	if id != contract.NormalizeSourceID(fp) {
		t.Fatalf("source id mismatch %s", id)
	}
}

// TestOpenStdin "-" 读取 STDIN
func TestOpenStdin(t *testing.T) {
	r := New(nil)
	r.stdin = strings.NewReader("from stdin")
	for _, p := range []string{"-", "", "  "} {
		r.stdin = strings.NewReader("from stdin")
		id, rc, err := r.Open(context.Background(), p)
		if err != nil || id != "stdin" {
			t.Fatalf("stdin open: %v %s", err, id)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		if string(b) != "from stdin" {
			t.Fatalf("内容错误: %q", string(b))
		}
	}
}

// TestOpenDir 目录应被拒绝
func TestOpenDir(t *testing.T) {
	_, _, err := New(nil).Open(context.Background(), t.TempDir())
	if !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("目录应返回 ErrInvalidInput, got %v", err)
	}
}

// TestOpenMissing 不存在的文件
func TestOpenMissing(t *testing.T) {
	_, _, err := New(nil).Open(context.Background(), filepath.Join(t.TempDir(), "nope.h"))
	if !os.IsNotExist(err) {
		t.Fatalf("应返回不存在错误, got %v", err)
	}
}

// TestOpenMaxBytes 超限文件与超限 STDIN
func TestOpenMaxBytes(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "big.h")
	os.WriteFile(fp, []byte("0123456789"), 0o644)
	r := New(&Options{MaxBytes: 4})
	if _, _, err := r.Open(context.Background(), fp); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("超限文件应失败, got %v", err)
	}
	r.stdin = strings.NewReader("0123456789")
	_, rc, err := r.Open(context.Background(), "-")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if _, err := io.ReadAll(rc); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("超限 STDIN 应失败, got %v", err)
	}
}

// TestOpenCanceled 已取消的上下文
func TestOpenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := New(nil).Open(ctx, "-"); !errors.Is(err, context.Canceled) {
		t.Fatalf("应返回取消错误, got %v", err)
	}
}
