package errors

import (
	stdErrors "errors"

	"bloggo/eventing"
)

// Normalize 将领域层/基础设施层的错误规范化为 AppError。
//
// 设计目标：
//   - 对外统一暴露 ErrorCode 体系，避免接入层出现一堆"裸"错误类型；
//   - 保留原始错误作为 cause，方便日志与调试；
//   - 未识别的错误保持原样，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	// 已经是 AppError，直接返回
	if _, ok := err.(IError); ok {
		return err
	}

	// 事件存储相关错误
	if stdErrors.Is(err, eventing.ErrAggregateNotFound) {
		return WrapError(err, ErrCodeNotFound, "aggregate not found")
	}

	var concurrencyErr *eventing.ConcurrencyError
	if stdErrors.As(err, &concurrencyErr) {
		return WrapError(err, ErrCodeConcurrency, "event store concurrency conflict")
	}

	var unknownKindErr *eventing.UnknownEventKindError
	if stdErrors.As(err, &unknownKindErr) {
		return WrapError(err, ErrCodeSchemaMismatch, "unknown event kind")
	}

	var storeErr *eventing.EventStoreError
	if stdErrors.As(err, &storeErr) {
		return WrapError(err, ErrCodeDatabase, "event store operation failed")
	}

	// 未识别的错误保持原样
	return err
}
