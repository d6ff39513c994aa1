package memory

import (
	"context"

	"bloggo/logging"
	"bloggo/messaging"
)

// dispatch 分发消息到订阅的处理器
//
// 处理流程:
//  1. 收集精确匹配的处理器
//  2. 收集通配符处理器 ("*")
//  3. 在当前分区 worker 内顺序调用所有处理器
//
// 同一分区内严格串行，保证单个分区键的处理互不重叠。
func (t *MemoryTransport) dispatch(ctx context.Context, message messaging.IMessage) {
	messageType := message.GetType()

	t.mutex.RLock()
	exact := t.handlers[messageType]
	wildcard := t.handlers["*"]

	// 拷贝到新的切片，避免在读锁释放后被并发修改
	handlers := make([]messaging.IMessageHandler, 0, len(exact)+len(wildcard))
	handlers = append(handlers, exact...)
	handlers = append(handlers, wildcard...)
	t.mutex.RUnlock()

	if len(handlers) == 0 {
		return
	}

	// 注意：MemoryTransport 是异步分发，handler 错误不会传播给发布者。
	// 如需错误处理，请在 handler 内部实现重试/检查点等机制。
	for _, handler := range handlers {
		if err := handler.Handle(ctx, message); err != nil {
			t.logger.Warn(ctx, "message handler failed",
				logging.String("handler", handler.Name()),
				logging.String("message_type", messageType),
				logging.String("message_id", message.GetID()),
				logging.Error(err))
		}
	}
}
