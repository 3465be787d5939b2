package diag

import (
	"context"
	"errors"
	"os"
	"time"

	"layoutgen/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeConfig    Code = "config"
	CodeLayout    Code = "layout"
	CodeResolve   Code = "resolve"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类，只看哨兵错误与标准库错误类型。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, contract.ErrConfigInvalid):
		return CodeConfig
	case errors.Is(err, contract.ErrNoDefaultSection), errors.Is(err, contract.ErrNoLayouts):
		return CodeLayout
	case errors.Is(err, contract.ErrUnresolved), errors.Is(err, contract.ErrMalformedLine):
		return CodeResolve
	case errors.Is(err, contract.ErrInvalidInput), errors.Is(err, contract.ErrPathInvalid):
		return CodeInvariant
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
