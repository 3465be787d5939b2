package contract

import (
	"context"
	"io"
)

// Reader: 头文件来源抽象（文件/STDIN）。
// 约束：
// 1) 仅提供字节流，不做注释剥离或解析；
// 2) SourceID 稳定且去平台差异化；
// 3) 调用方负责 Close。
type Reader interface {
	Open(ctx context.Context, path string) (SourceID, io.ReadCloser, error)
}
