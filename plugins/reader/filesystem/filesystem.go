package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"layoutgen/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// MaxBytes: 头文件大小上限；0 表示不限制。
	MaxBytes int64 `json:"max_bytes"`
}

// FileSystem 从文件或 STDIN 读取头文件。
type FileSystem struct {
	bufSize  int
	maxBytes int64
	stdin    io.Reader
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	r := &FileSystem{bufSize: defaultBuf, stdin: os.Stdin}
	if opts != nil && opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	if opts != nil && opts.MaxBytes > 0 {
		r.maxBytes = opts.MaxBytes
	}
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

// Open 打开 path；空串或 "-" 表示 STDIN。
// 仅接受常规文件（允许指向常规文件的符号链接）。
func (r *FileSystem) Open(ctx context.Context, path string) (contract.SourceID, io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	default:
	}

	p := strings.TrimSpace(path)
	if p == "" || p == "-" {
		return contract.SourceID("stdin"), r.wrap(io.NopCloser(r.stdin)), nil
	}
	// os.Stat 跟随符号链接
	info, err := os.Stat(p)
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%w: %s is not a regular file", contract.ErrInvalidInput, p)
	}
	if r.maxBytes > 0 && info.Size() > r.maxBytes {
		return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", contract.ErrInvalidInput, p, r.maxBytes)
	}
	f, err := os.Open(p)
	if err != nil {
		return "", nil, err
	}
	return contract.NormalizeSourceID(p), r.wrap(f), nil
}

func (r *FileSystem) wrap(c io.ReadCloser) io.ReadCloser {
	bc := newBufferedCloser(c, r.bufSize)
	if r.maxBytes <= 0 {
		return bc
	}
	return &limitedCloser{r: bc, n: r.maxBytes, c: bc}
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

// limitedCloser: 超出上限时返回错误而非静默截断（STDIN 无法预先 Stat）。
type limitedCloser struct {
	r io.Reader
	n int64
	c io.Closer
}

func (l *limitedCloser) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, fmt.Errorf("%w: input exceeds size limit", contract.ErrInvalidInput)
	}
	return n, err
}

func (l *limitedCloser) Close() error { return l.c.Close() }
