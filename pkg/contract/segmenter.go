package contract

import (
	"context"
	"io"
)

// Segmenter: 将头文件文本切分为默认分段与各布局分段。
// 约束：
// 1) 剥离注释与空行后再切分；
// 2) Layouts 保持发现顺序，且不含停止哨兵（UNSPECIFIED）；
// 3) 未找到默认分段返回 ErrNoDefaultSection；
// 4) 无内部并发、幂等。
type Segmenter interface {
	Segment(ctx context.Context, id SourceID, r io.Reader) (Sections, error)
}
