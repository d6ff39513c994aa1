package eventing

import "fmt"

// 事件存储错误代码
const (
	ErrCodeAggregateNotFound = "AGGREGATE_NOT_FOUND"
	ErrCodeInvalidEvent      = "INVALID_EVENT"
	ErrCodeStoreFailed       = "STORE_FAILED"
	ErrCodeSerializePayload  = "SERIALIZE_PAYLOAD_FAILED"
)

// EventStoreError 事件存储错误基类
type EventStoreError struct {
	Code      string
	Message   string
	Cause     error
	EventID   string
	EventType string
}

func (e *EventStoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EventStoreError) Unwrap() error { return e.Cause }

// Is 按错误代码比较，使预定义错误可用于 errors.Is
func (e *EventStoreError) Is(target error) bool {
	t, ok := target.(*EventStoreError)
	return ok && e.Code == t.Code
}

var (
	ErrAggregateNotFound = &EventStoreError{Code: ErrCodeAggregateNotFound, Message: "aggregate not found"}
	ErrInvalidEvent      = &EventStoreError{Code: ErrCodeInvalidEvent, Message: "invalid event"}
	ErrStoreFailed       = &EventStoreError{Code: ErrCodeStoreFailed, Message: "event store operation failed"}
)

// NewStoreFailedError 创建存储失败错误
func NewStoreFailedError(message string, cause error) *EventStoreError {
	return &EventStoreError{Code: ErrCodeStoreFailed, Message: message, Cause: cause}
}

// NewInvalidEventError 创建无效事件错误
func NewInvalidEventError(eventID, eventType, message string) *EventStoreError {
	return &EventStoreError{Code: ErrCodeInvalidEvent, Message: message, EventID: eventID, EventType: eventType}
}

// ConcurrencyError 并发冲突错误
//
// 乐观锁版本比较失败时返回。调用方应重新加载聚合
// （重放变长后的事件流）并从头重试命令。
type ConcurrencyError struct {
	AggregateID     string
	ExpectedVersion uint64
	ActualVersion   uint64
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency conflict: aggregate %s expected version %d, actual version %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

// 说明：
//   - ConcurrencyError 本身就是业务错误的最终形态，不再包裹下层错误；
//   - 调用方应通过 errors.As(err, **ConcurrencyError) 来识别并发冲突。

func NewConcurrencyError(aggregateID string, expected, actual uint64) *ConcurrencyError {
	return &ConcurrencyError{AggregateID: aggregateID, ExpectedVersion: expected, ActualVersion: actual}
}

// UnknownEventKindError 未知事件类型错误
//
// 出现该错误说明存储/消费两侧的事件模式不一致，属于致命错误：
// 消费循环必须停止并告警，绝不能静默丢弃事件。
type UnknownEventKindError struct {
	Kind string
}

func (e *UnknownEventKindError) Error() string {
	return fmt.Sprintf("unknown event kind: %s", e.Kind)
}

func NewUnknownEventKindError(kind string) *UnknownEventKindError {
	return &UnknownEventKindError{Kind: kind}
}
