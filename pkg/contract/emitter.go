package contract

import (
	"context"
	"io"
)

// Artifact: 单个待写出的生成物。
type Artifact struct {
	ID   ArtifactID
	Body io.Reader
}

// Emitter: 将组装结果格式化为目标工件（源码模板、JSON 等）。
// 约束：不修改 Result；遇到 Undefined 表项时的策略由实现决定。
type Emitter interface {
	Emit(ctx context.Context, res Result) (Artifact, error)
}
